package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/api"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/config"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/face"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Spotlight API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Provision weights and load models before accepting traffic
	host, err := face.NewHost(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load models: %w", err)
	}
	defer func() {
		if err := host.Close(); err != nil {
			logger.Error("model host close error", slog.Any("error", err))
		}
	}()

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Frames: service.NewFrameProcessor(host.Faces, host.Segmenter),
		Stats:  host,
	}, cfg.MaxImageSize)
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := cfg.Addr()
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")

	return nil
}
