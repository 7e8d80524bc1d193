// Package app initializes and holds the long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rain0r/spotify-metadata-cache/internal/api"
	"github.com/rain0r/spotify-metadata-cache/internal/cache"
	"github.com/rain0r/spotify-metadata-cache/internal/config"
	"github.com/rain0r/spotify-metadata-cache/internal/mcache"
	"github.com/rain0r/spotify-metadata-cache/internal/metrics"
	"github.com/rain0r/spotify-metadata-cache/internal/notify"
	"github.com/rain0r/spotify-metadata-cache/internal/spotify"
	"github.com/rain0r/spotify-metadata-cache/internal/store"
	"github.com/rain0r/spotify-metadata-cache/internal/worker"
)

// App holds the shared, long-lived services: the logger, the durable record
// store, the freshness cache, the catalog client, the notifier, the ingestion
// worker and the HTTP server. It is initialized once at startup and torn down
// by Close.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    mcache.RecordStore
	Cache    mcache.FreshnessCache
	Catalog  mcache.CatalogClient
	Notifier mcache.Notifier
	Worker   *worker.Worker
	Server   *api.Server
}

// New builds the full service graph from configuration. It fails fast: any
// collaborator that cannot be initialized aborts startup.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()

	recordStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	freshness, err := cache.New(cfg.Cache.Dir, cfg.Cache.InMemory, logger)
	if err != nil {
		recordStore.Close()
		return nil, fmt.Errorf("open freshness cache: %w", err)
	}

	catalog, err := spotify.New(spotify.Config{
		ClientID:          cfg.Spotify.ClientID,
		ClientSecret:      cfg.Spotify.ClientSecret,
		BaseURL:           cfg.Spotify.BaseURL,
		TokenURL:          cfg.Spotify.TokenURL,
		Timeout:           time.Duration(cfg.Spotify.TimeoutSeconds) * time.Second,
		MaxRetries:        cfg.Spotify.MaxRetries,
		BackoffInitial:    time.Duration(cfg.Spotify.BackoffInitialMs) * time.Millisecond,
		BackoffMax:        time.Duration(cfg.Spotify.BackoffMaxMs) * time.Millisecond,
		RequestsPerSecond: cfg.Spotify.RequestsPerSecond,
	}, logger.Named("spotify"))
	if err != nil {
		_ = freshness.Close()
		recordStore.Close()
		return nil, fmt.Errorf("build catalog client: %w", err)
	}

	notifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		_ = freshness.Close()
		recordStore.Close()
		return nil, err
	}

	w := worker.New(catalog, recordStore, freshness, notifier, mcache.SystemClock{}, worker.Config{
		Retention:      cfg.Worker.Retention(),
		ReportInterval: cfg.Worker.ReportInterval(),
		PollInterval:   cfg.Worker.PollInterval(),
	}, logger.Named("worker"))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    recordStore,
		Cache:    freshness,
		Catalog:  catalog,
		Notifier: notifier,
		Worker:   w,
		Server:   api.NewServer(w, logger.Named("http")),
	}, nil
}

func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (mcache.RecordStore, error) {
	switch cfg.DB.Provider {
	case "postgres":
		logger.Info("connecting to postgres", zap.String("table", cfg.DB.Table))
		pg, err := store.New(ctx, store.Config{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize postgres store: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return pg, nil
	case "noop":
		logger.Info("using no-op record store, fetched metadata will be discarded")
		return store.NoOp{}, nil
	default:
		return nil, fmt.Errorf("unknown db provider %q", cfg.DB.Provider)
	}
}

func newNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (mcache.Notifier, error) {
	switch cfg.Notify.Provider {
	case "pubsub":
		logger.Info("connecting to pub/sub", zap.String("topic", cfg.Notify.TopicID))
		n, err := notify.NewPubSub(ctx, cfg.Notify.ProjectID, cfg.Notify.TopicID, logger.Named("notify"))
		if err != nil {
			return nil, fmt.Errorf("initialize pub/sub notifier: %w", err)
		}
		return n, nil
	case "noop", "":
		return notify.NoOp{}, nil
	default:
		return nil, fmt.Errorf("unknown notify provider %q", cfg.Notify.Provider)
	}
}

// Close shuts down the services in reverse dependency order. The worker is
// drained first so nothing writes to a closed store or cache.
func (a *App) Close() {
	a.Worker.Stop()
	if err := a.Notifier.Close(); err != nil {
		a.Logger.Warn("closing notifier", zap.Error(err))
	}
	if err := a.Cache.Close(); err != nil {
		a.Logger.Warn("closing freshness cache", zap.Error(err))
	}
	a.Store.Close()
	_ = a.Logger.Sync()
}
