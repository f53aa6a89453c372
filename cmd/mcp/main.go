package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	mcpadapter "github.com/kirillkom/linguista/internal/adapters/mcp"
	"github.com/kirillkom/linguista/internal/bootstrap"
	"github.com/kirillkom/linguista/internal/config"
	"github.com/kirillkom/linguista/internal/observability/logging"
)

var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "mcp", "info").Error("config_error", "error", err)
		os.Exit(1)
	}
	// stdout carries the protocol, so logs go to stderr.
	logger := logging.New(os.Stderr, "mcp", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(mcpadapter.Services{
		Processor: app.Processor,
		Chat:      app.Chat,
		Catalog:   app.Catalog,
	}, version, logger)

	logger.Info("mcp_server_started", "backend_url", cfg.BackendURL)
	if err := srv.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("mcp_server_stopped")
}
