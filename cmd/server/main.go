package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/tradegate/internal/config"
	"github.com/example/tradegate/internal/database"
	"github.com/example/tradegate/internal/logger"
	"github.com/example/tradegate/internal/routes"
	"github.com/example/tradegate/internal/services"
)

func main() {
	cfg := config.Load()
	log := logger.New()

	db := database.Connect(cfg.DatabaseURL)

	settings := services.NewSettingsService(db)
	if err := settings.Init(); err != nil {
		log.Fatal().Err(err).Msg("settings initialization failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup := services.NewCleanupService(db, log, cfg.SweepInterval, cfg.PendingTTL)
	cleanup.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "tradegate",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlog.New())

	routes.Register(app, db, cfg, log, settings)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		_ = app.Shutdown()
	}()

	log.Info().Str("port", cfg.AppPort).Msg("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{"success": false, "message": message})
}
