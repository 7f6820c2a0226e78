package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/feedback-go-api/internal/config"
	"github.com/noah-isme/feedback-go-api/internal/dto"
	"github.com/noah-isme/feedback-go-api/internal/handler"
	"github.com/noah-isme/feedback-go-api/internal/middleware"
	"github.com/noah-isme/feedback-go-api/internal/models"
	"github.com/noah-isme/feedback-go-api/internal/router"
	"github.com/noah-isme/feedback-go-api/internal/service"
	"github.com/noah-isme/feedback-go-api/pkg/kv"
)

func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { client.Close() })

	store, err := kv.NewRedis(client, zerolog.Nop())
	require.NoError(t, err)

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())

	actionLogService := service.NewActionLogService(store, validate, logger)
	actionLogHandler := handler.NewActionLogHandler(actionLogService, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, config.Config{AppName: "Feedback API Test", AppEnv: "test"}, router.Dependencies{
		ActionLogHandler: actionLogHandler,
	})

	return app
}

func postAction(t *testing.T, app *fiber.App, payload map[string]interface{}) dto.ActionLogCreatedResponse {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/action-log", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var created dto.ActionLogCreatedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	require.True(t, created.Success)
	require.NotEmpty(t, created.ActionID)
	return created
}

func getActions(t *testing.T, app *fiber.App, path string) []models.LogEntry {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload dto.ActionListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()
	return payload.Actions
}

func TestActionLogEndToEnd(t *testing.T) {
	app := setupApp(t)

	first := postAction(t, app, map[string]interface{}{
		"actorId":   "t1",
		"actorName": "Dr. A",
		"action":    "Form Edited",
		"details":   "edited form X",
	})

	actions := getActions(t, app, "/api/v1/action-log/t1")
	require.Len(t, actions, 1)
	require.Equal(t, first.ActionID, actions[0].ID)
	require.Equal(t, "Form Edited", actions[0].Action)

	second := postAction(t, app, map[string]interface{}{
		"actorId":    "t2",
		"actorName":  "Dr. B",
		"action":     "Response Flagged for Review",
		"targetType": "student",
		"targetId":   "stu42",
	})

	related := getActions(t, app, "/api/v1/student-actions/stu42")
	require.Len(t, related, 1)
	require.Equal(t, second.ActionID, related[0].ID)

	// The first entry neither targets stu42 nor mentions it.
	for _, entry := range related {
		require.NotEqual(t, first.ActionID, entry.ID)
	}
}

func TestActionLogSummaryEndToEnd(t *testing.T) {
	app := setupApp(t)

	for i := 0; i < 7; i++ {
		postAction(t, app, map[string]interface{}{
			"actorId":   "t1",
			"actorName": "Dr. A",
			"action":    "Form Edited",
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/action-log-summary/t1", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var summary dto.ActionLogSummaryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	resp.Body.Close()

	require.Equal(t, 7, summary.TotalActions)
	require.Equal(t, 7, summary.TodayActions)
	require.Equal(t, 7, summary.WeekActions)
	require.Len(t, summary.RecentActions, 5)
}

func TestValidationFailureReturnsErrorEnvelope(t *testing.T) {
	app := setupApp(t)

	body := []byte(`{"actorId":"t1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/action-log", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	resp.Body.Close()
	require.NotEmpty(t, payload.Error)

	actions := getActions(t, app, "/api/v1/action-log/t1")
	require.Empty(t, actions)
}

func TestCORSHeadersPresent(t *testing.T) {
	app := setupApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/action-log", nil)
	req.Header.Set("Origin", "https://frontend.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
