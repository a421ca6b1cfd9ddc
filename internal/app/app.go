package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"NewsRelay/internal/config"
	"NewsRelay/internal/extractor"
	"NewsRelay/internal/infrastructure/fetcher"
	"NewsRelay/internal/infrastructure/llm"
	"NewsRelay/internal/infrastructure/parser"
	"NewsRelay/internal/infrastructure/scheduler"
	"NewsRelay/internal/infrastructure/storage"
	"NewsRelay/internal/infrastructure/telegram"
	"NewsRelay/internal/logging"
	"NewsRelay/internal/ports"
	"NewsRelay/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	publisher *usecase.Publisher
	scheduler *usecase.Scheduler
	closers   []io.Closer
}

// New opens storage and builds every adapter. Failure to open storage is fatal.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := a.openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}
	ledger, err := a.openLedger(ctx, cfg.Storage.Ledger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	baseLogger.Info("storage opened",
		"store", cfg.Storage.Backend,
		"ledger", cfg.Storage.Ledger.Backend,
		"delivered", len(ledger.Keys()),
	)

	ex, err := newExtractor(cfg.Source, baseLogger.With("component", "extractor"))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	translator, err := llm.New(cfg.Translator)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	loc := cfg.Scheduler.Location()
	clock := func() time.Time { return time.Now().In(loc) }

	ingest := usecase.NewIngestionPipeline(usecase.IngestDeps{
		Fetcher: fetcher.New(fetcher.Options{
			ListingURL: cfg.Source.ListingURL,
			Timeout:    cfg.Source.Timeout,
			UserAgents: cfg.Source.UserAgents,
		}),
		Extractor:  ex,
		Translator: translator,
		Store:      store,
		Pacer:      usecase.NewRandomPacer(cfg.Source.Pace.Min, cfg.Source.Pace.Max),
		Logger:     baseLogger.With("component", "ingest"),
		Clock:      clock,
	})

	startup := ""
	if cfg.Telegram.AnnounceStartup {
		startup = cfg.Telegram.StartupMessage
	}
	a.publisher = usecase.NewPublisher(usecase.PublishDeps{
		Ingest:         ingest,
		Store:          store,
		Ledger:         ledger,
		Notifier:       telegram.NewNotifier(cfg.Telegram),
		Pacer:          usecase.NewFixedPacer(cfg.Telegram.SendInterval),
		Logger:         baseLogger.With("component", "publisher"),
		Clock:          clock,
		LinkText:       cfg.Telegram.LinkText,
		ButtonText:     cfg.Telegram.ButtonText,
		StartupMessage: startup,
		PruneOnCycle:   cfg.Storage.PruneOnCycle,
	})
	a.scheduler = usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval),
		a.publisher,
		baseLogger.With("component", "scheduler"),
	)
	return a, nil
}

func (a *Application) openStore(cfg config.StorageConfig) (ports.ArticleStore, error) {
	switch cfg.Backend {
	case config.StoreCSV:
		return storage.NewCSVStore(cfg.CSVPath)
	case config.StoreSQLite:
		s, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func (a *Application) openLedger(ctx context.Context, cfg config.LedgerConfig) (ports.SentLedger, error) {
	switch cfg.Backend {
	case config.LedgerFile:
		return storage.OpenFileLedger(cfg.Path)
	case config.LedgerRedis:
		l, err := storage.OpenRedisLedger(ctx, &redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB}, cfg.RedisKey)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, l)
		return l, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

func newExtractor(cfg config.SourceConfig, log *slog.Logger) (extractor.Extractor, error) {
	selectors := parser.Selectors{
		Listing:   cfg.Selectors.Listing,
		Content:   cfg.Selectors.Content,
		Paragraph: cfg.Selectors.Paragraph,
	}
	registry := extractor.NewRegistry()
	registry.Register(parser.NewSelectorExtractor(cfg.ListingURL, selectors, log))
	registry.Register(parser.NewReadabilityExtractor(cfg.ListingURL, selectors, log))
	return registry.Resolve(cfg.Extractor)
}

// Run announces startup and drives cycles until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	a.publisher.Announce(ctx)

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "interval", a.cfg.Scheduler.Interval)

	<-ctx.Done()
	a.logger.Info("shutting down, waiting for the running cycle")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// RunOnce executes exactly one cycle.
func (a *Application) RunOnce(ctx context.Context) (usecase.PublishReport, error) {
	return a.publisher.RunCycle(ctx)
}

// Prune keeps only today's partition of the article store.
func (a *Application) Prune(ctx context.Context) error {
	return a.publisher.Prune(ctx)
}

// Close releases storage handles.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
