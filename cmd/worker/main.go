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

	"github.com/kirillkom/linguista/internal/bootstrap"
	"github.com/kirillkom/linguista/internal/config"
	"github.com/kirillkom/linguista/internal/core/domain"
	"github.com/kirillkom/linguista/internal/observability/logging"
	"github.com/kirillkom/linguista/internal/observability/metrics"
)

const jobTimeout = 5 * time.Minute

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:  logger,
		Backend: workerMetrics.Backend,
		Jobs:    true,
	})
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "metrics_port", cfg.WorkerMetricsPort)
	err = app.Queue.SubscribeJobQueued(ctx, func(handlerCtx context.Context, event domain.JobEvent) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, jobTimeout)
		defer cancel()

		if !event.EnqueuedAt.IsZero() {
			workerMetrics.ObserveQueueLag(time.Since(event.EnqueuedAt))
		}

		started := time.Now()
		workerMetrics.StartJob()
		err := app.JobProcessor.ProcessByID(processCtx, event.JobID)
		elapsed := time.Since(started)
		workerMetrics.FinishJob(elapsed, err)
		logger.Info("job_processed",
			"job_id", event.JobID,
			"task", string(event.Task),
			"duration_ms", elapsed.Milliseconds(),
			"ok", err == nil,
		)
		return err
	})
	if err != nil {
		logger.Error("worker_subscribe_error", "error", err)
		os.Exit(1)
	}
}
