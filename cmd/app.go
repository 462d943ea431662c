package cmd

import (
	"context"
	"fmt"

	"netsync/core/config"
	"netsync/core/database"
	"netsync/core/events"
	"netsync/core/logger"
	"netsync/core/metrics"
	"netsync/core/remote"
	"netsync/core/storage"
	"netsync/feature/devicesync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the components shared by the commands.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Collector
	db      *gorm.DB
	store   remote.Store
	storage storage.Client
	events  events.Publisher
}

// newApp loads the configuration and creates the logger.
func newApp(configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &app{cfg: cfg, log: l, metrics: metrics.New(), events: events.Nop{}}, nil
}

// openStore connects the system-of-record binding selected by remote.backend,
// wrapped with retries and metrics.
func (a *app) openStore(ctx context.Context) error {
	var base remote.Store
	switch a.cfg.Remote.Backend {
	case "memory":
		a.log.Warn("Using the in-memory system of record; nothing is persisted")
		base = remote.NewMemoryStore()
	default:
		db, err := database.Connect(a.cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		gs := remote.NewGormStore(db)
		if err := gs.Migrate(ctx); err != nil {
			return err
		}
		base = gs
	}
	a.store = remote.NewInstrumentedStore(remote.NewRetryStore(base, a.cfg.Remote.Retry()), a.metrics)
	return nil
}

// openStorage connects the snapshot and report bucket when enabled.
func (a *app) openStorage(ctx context.Context) error {
	if !a.cfg.Storage.Enabled {
		return nil
	}
	client, err := storage.NewClient(a.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	if err := storage.EnsureBucket(ctx, client, a.cfg.Storage.Bucket); err != nil {
		return err
	}
	a.storage = client
	return nil
}

// openEvents connects the report publisher when enabled.
func (a *app) openEvents() error {
	p, err := events.New(&a.cfg.Events, a.log)
	if err != nil {
		return err
	}
	a.events = p
	return nil
}

// syncer builds the Syncer from the sync section, the profile and the
// enabled sinks.
func (a *app) syncer(opts ...devicesync.Option) (*devicesync.Syncer, error) {
	profile, err := config.LoadProfile(a.cfg.Sync.Profile)
	if err != nil {
		return nil, err
	}
	sinks := []devicesync.Sink{devicesync.NewLogSink(a.log)}
	if a.storage != nil {
		sinks = append(sinks, devicesync.NewArchiveSink(a.storage, a.cfg.Storage.Bucket, a.cfg.Sync.ReportPrefix))
	}
	if a.cfg.Events.Enabled {
		sinks = append(sinks, devicesync.NewEventSink(a.events, a.cfg.Events.SubjectPrefix))
	}

	base := []devicesync.Option{
		devicesync.WithLogger(a.log),
		devicesync.WithMetrics(a.metrics),
		devicesync.WithProfile(profile),
		devicesync.WithOptions(devicesync.FromConfig(a.cfg.Sync)),
		devicesync.WithParallel(a.cfg.Sync.Parallel),
		devicesync.WithSinks(sinks...),
	}
	return devicesync.NewSyncer(a.store, append(base, opts...)...), nil
}

// source returns the bucket snapshot source, nil when storage is disabled.
func (a *app) source() devicesync.Source {
	if a.storage == nil {
		return nil
	}
	return devicesync.NewBucketSource(a.storage, a.cfg.Storage.Bucket, a.cfg.Sync.SnapshotPrefix)
}

func (a *app) close() {
	a.events.Close()
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = a.log.Sync()
}
