package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/feedback-go-api/internal/config"
	"github.com/noah-isme/feedback-go-api/internal/handler"
	"github.com/noah-isme/feedback-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActionLogHandler *handler.ActionLogHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	if deps.ActionLogHandler != nil {
		deps.ActionLogHandler.Register(api)
	}
}
