package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kirillkom/linguista/internal/config"
	"github.com/kirillkom/linguista/internal/core/usecase"
	"github.com/kirillkom/linguista/internal/infrastructure/backend/nlpapi"
	"github.com/kirillkom/linguista/internal/infrastructure/extractor"
	"github.com/kirillkom/linguista/internal/infrastructure/markdown"
	"github.com/kirillkom/linguista/internal/infrastructure/queue/nats"
	"github.com/kirillkom/linguista/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/linguista/internal/infrastructure/resilience"
	"github.com/kirillkom/linguista/internal/infrastructure/session/redis"
	"github.com/kirillkom/linguista/internal/observability/metrics"
)

// Options selects the optional parts of the application graph.
type Options struct {
	Logger    *slog.Logger
	Backend   *metrics.BackendMetrics
	Exchanges usecase.ExchangeObserver
	// Jobs connects postgres and NATS and builds the job use cases.
	Jobs bool
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Backend   *nlpapi.Client
	Processor *usecase.AnalyzeTextUseCase
	Catalog   *usecase.CatalogUseCase
	Chat      *usecase.ChatUseCase
	Learning  *usecase.LearningUseCase
	Extractor *extractor.Extractor

	Queue        *nats.Queue
	Jobs         *usecase.SubmitJobUseCase
	JobProcessor *usecase.ProcessJobUseCase

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}

	executorOpts := []resilience.Option{resilience.WithLogger(logger)}
	var clientOpts []nlpapi.Option
	if opts.Backend != nil {
		executorOpts = append(executorOpts, resilience.WithStateObserver(opts.Backend))
		clientOpts = append(clientOpts, nlpapi.WithObserver(opts.Backend))
	}
	executor := resilience.NewExecutor(cfg.Resilience(), executorOpts...)
	app.Backend = nlpapi.New(cfg.BackendURL, cfg.BackendTimeout, executor, clientOpts...)

	chatOpts := []usecase.ChatOption{
		usecase.WithChatLogger(logger),
		usecase.WithSessionIdleTTL(cfg.ChatHistoryTTL),
	}
	if opts.Exchanges != nil {
		chatOpts = append(chatOpts, usecase.WithExchangeObserver(opts.Exchanges))
	}
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		app.onClose(func() { _ = rdb.Close() })
		store := redis.NewTranscriptStore(rdb, cfg.ChatHistoryTTL, cfg.ChatHistoryMax)
		chatOpts = append(chatOpts, usecase.WithTranscriptStore(store))
	}

	app.Processor = usecase.NewAnalyzeTextUseCase(app.Backend)
	app.Catalog = usecase.NewCatalogUseCase(app.Backend)
	app.Chat = usecase.NewChatUseCase(app.Backend, chatOpts...)
	app.Learning = usecase.NewLearningUseCase(app.Backend, markdown.New())
	app.Extractor = extractor.New()

	if opts.Jobs {
		if err := app.connectJobs(ctx, logger); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

func (a *App) connectJobs(ctx context.Context, logger *slog.Logger) error {
	db, err := postgres.OpenDB(ctx, a.Config.PostgresDSN, postgres.PoolConfig{
		MaxConns:     a.Config.PostgresMaxConns,
		ConnLifetime: a.Config.PostgresConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	a.onClose(func() { _ = db.Close() })

	repo := postgres.NewJobRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(a.Config.NATSURL, a.Config.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(a.Config.Resilience(), resilience.WithLogger(logger)),
		Logger:             logger,
	})
	if err != nil {
		return fmt.Errorf("init message queue: %w", err)
	}
	a.onClose(queue.Close)

	a.Queue = queue
	a.Jobs = usecase.NewSubmitJobUseCase(repo, queue)
	a.JobProcessor = usecase.NewProcessJobUseCase(repo, a.Backend)
	return nil
}

func (a *App) onClose(fn func()) {
	a.closeFns = append(a.closeFns, fn)
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}
