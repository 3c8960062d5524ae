package app

import (
	"context"
	"fmt"
	"log/slog"

	"PmdaPipeline/internal/bridge"
	"PmdaPipeline/internal/config"
	"PmdaPipeline/internal/infrastructure/fetch"
	"PmdaPipeline/internal/infrastructure/llm"
	"PmdaPipeline/internal/infrastructure/scheduler"
	"PmdaPipeline/internal/infrastructure/scraper"
	"PmdaPipeline/internal/infrastructure/storage"
	"PmdaPipeline/internal/logging"
	"PmdaPipeline/internal/ports"
	"PmdaPipeline/internal/source"
	"PmdaPipeline/internal/usecase"
)

// Application wires configuration to adapters and the pipeline use case.
type Application struct {
	cfg      config.Config
	store    *storage.SQLiteStore
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New builds a runnable application instance. The caller owns the returned
// application and must Close it.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
	}

	client := fetch.NewClient(cfg.Scraping.RequestTimeout(), cfg.Scraping.RateLimitDelay(), cfg.Scraping.UserAgent)

	registry := source.NewRegistry()
	registry.Register(scraper.NewApprovalsSource(client, cfg.Sources.ApprovalsURL, "New Drug", baseLogger.With("component", "source.approvals")))
	registry.Register(scraper.NewJANSource(client, cfg.Sources.JanURL, baseLogger.With("component", "source.jan")))
	registry.Register(scraper.NewJADERSource(client, cfg.Sources.JaderURL, baseLogger.With("component", "source.jader")))

	// Without an API key the fallback translation path stays disabled and
	// unresolved names are marked skipped.
	var translator ports.Translator
	if cfg.DeepSeek.APIKey != "" {
		translator = llm.NewDeepSeekClient(cfg.DeepSeek)
	}

	naming := bridge.New(translator, cfg.DeepSeek.MaxConcurrent, cfg.DeepSeek.RequestTimeout(), baseLogger.With("component", "bridge"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Store:   store,
		Sources: registry,
		Bridge:  naming,
		Logger:  baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, store: store, pipeline: pipeline, logger: baseLogger}, nil
}

// Run executes the requested stage once. Stage "all" runs the full layered
// rebuild.
func (a *Application) Run(ctx context.Context, stage string) error {
	switch stage {
	case "", "all":
		return a.pipeline.Run(ctx)
	case "raw":
		return a.pipeline.RunRaw(ctx)
	case "refined":
		return a.pipeline.RunRefined(ctx)
	case "curated":
		return a.pipeline.RunCurated(ctx)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

// RunDaemon keeps rebuilding the store on the configured interval until the
// context is cancelled.
func (a *Application) RunDaemon(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval())
	runner := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()
	return runner.Stop(context.Background())
}

// Close releases the embedded store.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
