package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/kirillkom/linguista/internal/adapters/http"
	"github.com/kirillkom/linguista/internal/bootstrap"
	"github.com/kirillkom/linguista/internal/config"
	"github.com/kirillkom/linguista/internal/observability/logging"
	"github.com/kirillkom/linguista/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:    logger,
		Backend:   httpMetrics.Backend,
		Exchanges: httpMetrics,
		Jobs:      cfg.JobsEnabled,
	})
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	services := httpadapter.Services{
		Processor: app.Processor,
		Catalog:   app.Catalog,
		Chat:      app.Chat,
		Learning:  app.Learning,
	}
	if app.Jobs != nil {
		services.Jobs = app.Jobs
	}
	handler, err := httpadapter.NewRouter(services, httpadapter.Options{
		RateLimitRPS:   cfg.APIRateLimitRPS,
		RateLimitBurst: cfg.APIRateLimitBurst,
		MaxInFlight:    cfg.APIMaxInFlight,
		AllowedOrigins: cfg.AllowedOrigins(),
		Logger:         logger,
		Metrics:        httpMetrics,
	}).Handler()
	if err != nil {
		logger.Error("router_error", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort, "backend_url", cfg.BackendURL, "jobs_enabled", app.Jobs != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}
