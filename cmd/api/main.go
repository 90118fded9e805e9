package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/facefinder/internal/api"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/app"
	"github.com/saturnino-fabrica-de-software/facefinder/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envFile := flag.String("env-file", "", "dotenv file to load (default .env)")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting facefinder API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.FaceProvider),
		slog.String("blob_backend", cfg.BlobBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger, app.Overrides{})
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to release resources", slog.Any("error", err))
		}
	}()

	deps := &api.Dependencies{
		Pipeline:       a.Pipeline,
		Corpora:        a.Store,
		PublicBaseURL:  cfg.PublicBaseURL,
		MaxUploadBytes: int(cfg.AcquireMaxBytes),
	}
	if w, ok := a.UploadStore(); ok {
		deps.Uploads = a.Pipeline
		deps.UploadStore = w
	}
	// typed nils must not reach the interface fields
	if a.DB != nil {
		deps.DB = a.DB
		deps.Audits = a.Audits
		deps.RateLimiter = a.RateLimiter
		deps.MatchRateLimit = cfg.MatchRateLimit
	}

	router := api.NewRouter(logger, deps)
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	if a.RateLimiter != nil {
		go cleanupRateLimits(ctx, a, logger)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}

// cleanupRateLimits drops stale rate limit counters every hour.
func cleanupRateLimits(ctx context.Context, a *app.App, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := a.RateLimiter.CleanupExpired(ctx)
			if err != nil {
				logger.Warn("rate limit cleanup failed", slog.Any("error", err))
				continue
			}
			logger.Debug("rate limit cleanup", slog.Int64("deleted", deleted))
		}
	}
}
