package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedback-go-api/internal/dto"
	"github.com/noah-isme/feedback-go-api/internal/service"
	"github.com/noah-isme/feedback-go-api/internal/utils"
)

// ActionLogHandler exposes the action-log endpoints.
type ActionLogHandler struct {
	service service.ActionLogService
	logger  zerolog.Logger
}

// NewActionLogHandler builds an action log handler instance.
func NewActionLogHandler(service service.ActionLogService, logger zerolog.Logger) *ActionLogHandler {
	return &ActionLogHandler{
		service: service,
		logger:  logger.With().Str("component", "action_log_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ActionLogHandler) Register(router fiber.Router) {
	router.Post("/action-log", h.record)
	router.Get("/action-log/:actorId", h.actorLog)
	router.Get("/action-log-summary/:actorId", h.actorSummary)
	router.Get("/student-actions/:subjectId", h.subjectActions)
}

func (h *ActionLogHandler) record(c *fiber.Ctx) error {
	var payload dto.ActionLogCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	entry, err := h.service.Record(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err, "Failed to log action")
	}

	return c.JSON(dto.ActionLogCreatedResponse{Success: true, ActionID: entry.ID})
}

func (h *ActionLogHandler) actorLog(c *fiber.Ctx) error {
	actions, err := h.service.ActorLog(c.Context(), c.Params("actorId"))
	if err != nil {
		return h.handleError(c, err, "Failed to fetch action log")
	}

	return c.JSON(dto.ActionListResponse{Actions: actions})
}

func (h *ActionLogHandler) actorSummary(c *fiber.Ctx) error {
	summary, err := h.service.ActorSummary(c.Context(), c.Params("actorId"))
	if err != nil {
		return h.handleError(c, err, "Failed to fetch action log summary")
	}

	return c.JSON(summary)
}

func (h *ActionLogHandler) subjectActions(c *fiber.Ctx) error {
	actions, err := h.service.SubjectActions(c.Context(), c.Params("subjectId"))
	if err != nil {
		return h.handleError(c, err, "Failed to fetch student-related actions")
	}

	return c.JSON(dto.ActionListResponse{Actions: actions})
}

// handleError maps validation failures to a 400 with a descriptive message.
// Everything else, storage failures included, becomes a 500 whose client
// message stays generic; the detail only reaches the server log.
func (h *ActionLogHandler) handleError(c *fiber.Ctx, err error, fallback string) error {
	var validationError *service.ValidationError
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationError):
		return utils.SendError(c, fiber.StatusBadRequest, validationError.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Str("path", c.Path()).Msg("action log request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
