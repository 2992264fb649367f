package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/weather-location-service/internal/adapter/http"
	"github.com/couchcryptid/weather-location-service/internal/app"
	"github.com/couchcryptid/weather-location-service/internal/config"
	"github.com/couchcryptid/weather-location-service/internal/geolocation"
	"github.com/couchcryptid/weather-location-service/internal/observability"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		os.Exit(1)
	}
	a.Coordinator.Start(ctx)

	srv := httpadapter.NewServer(cfg.HTTPAddr, a.Coordinator, httpadapter.API{
		Location:    a.Coordinator,
		Search:      a.Search,
		Geolocation: a.Resolver,
	}, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Resolve the device location once at startup; retries come through the API.
	go func() {
		if _, err := a.Resolver.Resolve(ctx); err != nil && !errors.Is(err, geolocation.ErrResolutionInProgress) {
			logger.Error("geolocation error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	a.Close()

	logger.Info("shutdown complete")
}
