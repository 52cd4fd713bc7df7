// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	gcstorage "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/JakeFAU/isro-crawler/internal/config"
	collyfetcher "github.com/JakeFAU/isro-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/isro-crawler/internal/output"
	"github.com/JakeFAU/isro-crawler/internal/publisher"
	pubsubpublisher "github.com/JakeFAU/isro-crawler/internal/publisher/pubsub"
	"github.com/JakeFAU/isro-crawler/internal/runner"
	"github.com/JakeFAU/isro-crawler/internal/sources"
	"github.com/JakeFAU/isro-crawler/internal/storage"
	"github.com/JakeFAU/isro-crawler/internal/storage/gcs"
	"github.com/JakeFAU/isro-crawler/internal/storage/local"
	"github.com/JakeFAU/isro-crawler/internal/storage/memory"
	"github.com/JakeFAU/isro-crawler/internal/storage/postgres"
)

// App holds the shared services for one process. Postgres and Pub/Sub are
// only connected when configured.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     storage.BlobStore
	sink      *output.Sink
	fetcher   *collyfetcher.Fetcher
	registry  *sources.Registry
	publisher publisher.Publisher
	pool      *pgxpool.Pool
	runs      *postgres.RunStore
	closers   []func() error
}

// New builds an App from cfg. It fails fast if a configured service cannot
// be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	store, err := a.newBlobStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	a.sink = output.NewSink(store, cfg.Output.Prefix, logger.Named("output"))

	a.fetcher = collyfetcher.New(collyfetcher.Config{
		UserAgent:       cfg.Fetch.UserAgent,
		Timeout:         cfg.Fetch.Timeout,
		MaxRetries:      cfg.Fetch.MaxRetries,
		Backoff:         cfg.Fetch.Backoff,
		PolitenessDelay: cfg.Fetch.PolitenessDelay,
	}, logger.Named("fetcher"))
	a.registry = sources.NewRegistry(a.fetcher, sources.Config{
		SiteRoot:            cfg.Sources.SiteRoot,
		NewsLimit:           cfg.Sources.NewsLimit,
		VehicleContentLimit: cfg.Sources.VehicleContentLimit,
		LaunchTable:         cfg.Sources.LaunchTable,
	}, logger.Named("sources"))

	if cfg.PubSub.Enabled() {
		pub, err := pubsubpublisher.Connect(ctx, cfg.PubSub.ProjectID, cfg.PubSub.Topic)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init pubsub: %w", err)
		}
		logger.Info("publishing run events", zap.String("topic", cfg.PubSub.Topic))
		a.publisher = pub
		a.closers = append(a.closers, pub.Close)
	}

	if cfg.Database.RecordRuns {
		pool, err := a.Pool(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		runs, err := postgres.NewRunStore(pool, cfg.Database.RunTable)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init run store: %w", err)
		}
		if err := runs.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.runs = runs
	}
	return a, nil
}

func (a *App) newBlobStore(ctx context.Context) (storage.BlobStore, error) {
	switch a.cfg.Storage.Provider {
	case config.ProviderGCS:
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: a.cfg.Storage.GCSBucket})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("init gcs store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.logger.Info("using gcs storage", zap.String("bucket", a.cfg.Storage.GCSBucket))
		return store, nil
	case config.ProviderMemory:
		a.logger.Info("using in-memory storage; outputs are discarded on exit")
		return memory.NewBlobStore(), nil
	default:
		store, err := local.New(local.Config{BaseDir: a.cfg.Output.Dir})
		if err != nil {
			return nil, fmt.Errorf("init local store: %w", err)
		}
		a.logger.Debug("using local storage", zap.String("dir", a.cfg.Output.Dir))
		return store, nil
	}
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Sink returns the dataset writer.
func (a *App) Sink() *output.Sink { return a.sink }

// Registry returns every source in run order.
func (a *App) Registry() *sources.Registry { return a.registry }

// Runner builds a runner wired to the configured sink, publisher, run store,
// and pushgateway.
func (a *App) Runner() *runner.Runner {
	opts := []runner.Option{
		runner.WithPushgateway(a.cfg.Metrics.PushgatewayURL, a.cfg.Metrics.Job),
	}
	if a.publisher != nil {
		opts = append(opts, runner.WithPublisher(a.publisher))
	}
	if a.runs != nil {
		opts = append(opts, runner.WithRunRecorder(a.runs))
	}
	return runner.New(a.sink, a.logger.Named("runner"), opts...)
}

// Pool returns the Postgres pool, connecting on first use.
func (a *App) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:             a.cfg.Database.DSN,
		MaxConns:        a.cfg.Database.MaxConns,
		MinConns:        a.cfg.Database.MinConns,
		MaxConnLifetime: a.cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return nil, err
	}
	a.pool = pool
	return pool, nil
}

// LaunchStore returns the ingest store backed by the shared pool.
func (a *App) LaunchStore(ctx context.Context) (*postgres.LaunchStore, error) {
	pool, err := a.Pool(ctx)
	if err != nil {
		return nil, err
	}
	store, err := postgres.NewLaunchStore(pool, a.cfg.Database.LaunchTable, a.logger.Named("ingest"))
	if err != nil {
		return nil, fmt.Errorf("init launch store: %w", err)
	}
	return store, nil
}

// Close releases every service the App opened.
func (a *App) Close() {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, a.closers[i]())
	}
	a.closers = nil
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if errs != nil {
		a.logger.Warn("error closing services", zap.Error(errs))
	}
}
