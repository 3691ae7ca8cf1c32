// Command server runs the Deskly cart API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jtpk2168/deskly-mobile-app-sub000/pkg/logger"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/app"
	"github.com/jtpk2168/deskly-mobile-app-sub000/services/cart/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("cart service exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(app.ServiceName+"-service", cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("cart service configured",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("storage", cfg.StorageDriver),
		slog.Bool("events", cfg.EventsEnabled),
		slog.Bool("auth", cfg.AuthEnabled()),
	)

	a, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		return err
	}
	log.Info("cart service stopped")
	return nil
}
