package bootstrap

import (
	"context"
	"fmt"

	"github.com/kirillkom/review-sentiment/internal/config"
	"github.com/kirillkom/review-sentiment/internal/core/ports"
	"github.com/kirillkom/review-sentiment/internal/core/usecase"
	"github.com/kirillkom/review-sentiment/internal/infrastructure/queue/nats"
	"github.com/kirillkom/review-sentiment/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/review-sentiment/internal/infrastructure/resilience"
	"github.com/kirillkom/review-sentiment/internal/infrastructure/sentimentapi"
	"github.com/kirillkom/review-sentiment/internal/infrastructure/settings"
	"github.com/kirillkom/review-sentiment/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/review-sentiment/internal/infrastructure/tabular/csvcodec"
	"github.com/kirillkom/review-sentiment/internal/infrastructure/tabular/xlsxexport"
	"github.com/kirillkom/review-sentiment/internal/observability/metrics"
)

// Client holds the use cases that only need the classification service and
// the local settings file. The CLI and the MCP server run on it.
type Client struct {
	Config config.Config

	API       *sentimentapi.Client
	Analyzer  *usecase.AnalyzeService
	History   *usecase.HistoryService
	Dashboard *usecase.DashboardService
	Settings  *usecase.SettingsService
}

// App adds batch persistence, upload storage and the queue on top of Client
// for the api and worker processes.
type App struct {
	*Client

	Queue        ports.MessageQueue
	Batches      *usecase.BatchService
	ProcessUC    ports.BatchProcessor
	BatchMetrics *metrics.BatchMetrics

	closeFn func()
}

func NewClient(ctx context.Context, cfg config.Config) (*Client, error) {
	baseURL, err := cfg.SentimentBaseURL()
	if err != nil {
		return nil, fmt.Errorf("resolve sentiment api url: %w", err)
	}

	api := sentimentapi.New(baseURL, sentimentapi.Options{
		Timeout:  cfg.SentimentAPITimeout,
		Executor: resilience.NewExecutor(resilienceConfig(cfg)),
	})

	store := settings.NewFileStore(cfg.SettingsPath, cfg.DefaultSettings())
	settingsSvc, err := usecase.LoadSettingsService(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return &Client{
		Config:    cfg,
		API:       api,
		Analyzer:  usecase.NewAnalyzeService(api),
		History:   usecase.NewHistoryService(api),
		Dashboard: usecase.NewDashboardService(api),
		Settings:  settingsSvc,
	}, nil
}

// NewSession returns a bulk session over the current settings. A non-empty
// column overrides the configured text column.
func (c *Client) NewSession(column string) *usecase.BulkSession {
	current := c.Settings.Current()
	if column != "" {
		current.TextColumn = column
	}
	pipeline := usecase.NewPipeline(c.API, nil, current.TextColumn)
	return usecase.NewBulkSession(pipeline, csvcodec.New(), current, exporters()...)
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewBatchRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ClientName:         "review-sentiment-" + service,
		ResilienceExecutor: resilience.NewExecutor(queueResilienceConfig(cfg)),
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	batchMetrics := metrics.NewBatchMetrics(service)
	parser := csvcodec.New()
	pipeline := usecase.NewPipeline(client.API, batchMetrics, cfg.DefaultSettings().TextColumn)

	return &App{
		Client:       client,
		Queue:        queue,
		Batches:      usecase.NewBatchService(repo, storage, queue, client.Settings, exporters()...),
		ProcessUC:    usecase.NewProcessBatchUseCase(repo, storage, parser, pipeline, batchMetrics),
		BatchMetrics: batchMetrics,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func exporters() []ports.ResultExporter {
	return []ports.ResultExporter{csvcodec.New(), xlsxexport.New()}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	if cfg.SentimentAPIRetryAttempts > 0 {
		out.RetryMaxAttempts = cfg.SentimentAPIRetryAttempts
	}
	out.RateLimitRPS = cfg.SentimentAPIRPS
	if cfg.SentimentAPIBurst > 0 {
		out.RateLimitBurst = cfg.SentimentAPIBurst
	}
	out.BreakerEnabled = cfg.BreakerEnabled
	if cfg.BreakerMinRequests > 0 {
		out.BreakerMinRequests = uint32(cfg.BreakerMinRequests)
	}
	if cfg.BreakerFailureRatio > 0 {
		out.BreakerFailureRatio = cfg.BreakerFailureRatio
	}
	if cfg.BreakerOpenTimeout > 0 {
		out.BreakerOpenTimeout = cfg.BreakerOpenTimeout
	}
	return out
}

// queueResilienceConfig retries publishes through short reconnect windows.
func queueResilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryMaxAttempts = 3
	out.BreakerEnabled = cfg.BreakerEnabled
	return out
}
