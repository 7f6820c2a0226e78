package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedback-go-api/internal/config"
	"github.com/noah-isme/feedback-go-api/internal/database"
	"github.com/noah-isme/feedback-go-api/internal/handler"
	"github.com/noah-isme/feedback-go-api/internal/middleware"
	"github.com/noah-isme/feedback-go-api/internal/router"
	"github.com/noah-isme/feedback-go-api/internal/service"
	"github.com/noah-isme/feedback-go-api/pkg/kv"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	store, cleanup, err := buildStore(cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialise store: %v", err)
	}
	defer cleanup()

	validate := validator.New(validator.WithRequiredStructEnabled())

	actionLogService := service.NewActionLogService(store, validate, logger)
	actionLogHandler := handler.NewActionLogHandler(actionLogService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ActionLogHandler: actionLogHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildStore(cfg config.Config, logger zerolog.Logger) (kv.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverRedis:
		client, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := kv.NewRedis(client, logger)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, func() { client.Close() }, nil
	default:
		db, err := database.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := kv.NewPostgres(db, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
