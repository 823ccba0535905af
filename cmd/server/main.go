package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/repulse/internal/config"
	"github.com/onnwee/repulse/internal/errorreporting"
	"github.com/onnwee/repulse/internal/force"
	"github.com/onnwee/repulse/internal/logger"
	"github.com/onnwee/repulse/internal/secrets"
	"github.com/onnwee/repulse/internal/server"
	"github.com/onnwee/repulse/internal/tracing"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	if envErr != nil {
		logger.Info("No .env file found, using process environment")
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := errorreporting.Init(cfg.SentrySettings()); err != nil {
		logger.Warn("Sentry init failed, error reporting disabled", "error", err)
	} else if errorreporting.IsSentryEnabled() {
		logger.Info("Sentry error reporting enabled", "dsn", secrets.Mask(cfg.SentryDSN), "environment", cfg.SentryEnvironment)
	}
	defer errorreporting.Flush(2 * time.Second)

	shutdownTracing, err := tracing.Init("repulse-server", cfg.TracingSettings())
	if err != nil {
		logger.Warn("Tracing init failed, continuing without traces", "error", err)
	}

	engine, err := force.New(cfg.EngineOptions())
	if err != nil {
		logger.Error("Force engine init failed", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(cfg, engine)
	if err != nil {
		engine.Shutdown()
		logger.Error("Server init failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("Server failed", "error", err)
			errorreporting.CaptureError(err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown incomplete", "error", err)
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("Tracer shutdown failed", "error", err)
		}
	}
	logger.Info("Server stopped")
}
