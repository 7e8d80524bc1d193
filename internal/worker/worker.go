// Package worker implements the metadata ingestion loop: a single consumer
// pulling album ids off the deduplicating queue, running the
// fetch-and-persist pipeline, and expanding the discovery frontier.
package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rain0r/spotify-metadata-cache/internal/mcache"
	"github.com/rain0r/spotify-metadata-cache/internal/metrics"
)

// State is the worker lifecycle state.
type State int32

const (
	// StateIdle means Start has not been called yet.
	StateIdle State = iota
	// StateRunning means the loop is consuming the queue.
	StateRunning
	// StateDraining means a stop was requested; the in-flight item finishes.
	StateDraining
	// StateStopped is terminal; the loop goroutine has exited.
	StateStopped
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Config controls Worker behavior.
type Config struct {
	// Retention is how long a persisted record stays fresh.
	Retention time.Duration
	// ReportInterval is the cadence of the periodic stats report.
	ReportInterval time.Duration
	// PollInterval bounds the queue wait so the report schedule is
	// re-checked while idle.
	PollInterval time.Duration
}

// Worker owns the queue, the frontier set and the statistics counters; the
// pipeline and discovery engine run inside its single consumer goroutine.
type Worker struct {
	queue    *mcache.UniqueQueue
	catalog  mcache.CatalogClient
	store    mcache.RecordStore
	cache    mcache.FreshnessCache
	notifier mcache.Notifier
	clock    mcache.Clock
	cfg      Config
	logger   *zap.Logger

	frontierMu sync.RWMutex
	frontier   map[string]struct{}

	discovered atomic.Uint64
	inserted   atomic.Uint64
	cacheHits  atomic.Uint64
	failures   atomic.Uint64

	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a Worker.
func New(
	catalog mcache.CatalogClient,
	store mcache.RecordStore,
	cache mcache.FreshnessCache,
	notifier mcache.Notifier,
	clock mcache.Clock,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if clock == nil {
		clock = mcache.SystemClock{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 180 * 24 * time.Hour
	}
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Worker{
		queue:    mcache.NewUniqueQueue(),
		catalog:  catalog,
		store:    store,
		cache:    cache,
		notifier: notifier,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
		frontier: make(map[string]struct{}),
		done:     make(chan struct{}),
	}
}

// Add accepts an externally formatted album identifier, canonicalizes it to
// the trailing path segment, and submits it at the given priority. It
// returns true if the id was newly enqueued. Fire-and-forget: failures are
// only observable through logs and metrics.
func (w *Worker) Add(identifier string, priority mcache.Priority) bool {
	id := canonicalID(identifier)
	if id == "" {
		w.logger.Warn("rejecting empty album identifier", zap.String("identifier", identifier))
		return false
	}
	queued := w.queue.Submit(mcache.WorkItem{Priority: priority, AlbumID: id})
	w.logger.Debug("album submitted",
		zap.String("album_id", id),
		zap.Stringer("priority", priority),
		zap.Bool("queued", queued),
	)
	return queued
}

// canonicalID extracts the trailing path segment of an identifier such as
// "https://open.spotify.com/album/4aawy" or a bare id.
func canonicalID(identifier string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(identifier), "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return trimmed
}

// Start launches the consumer loop in its own goroutine. It returns an error
// if the worker was already started.
func (w *Worker) Start() error {
	if !w.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return fmt.Errorf("worker already started (state %s)", w.State())
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	go w.run(ctx)
	w.logger.Info("ingestion worker started")
	return nil
}

// Stop signals draining and blocks until the loop has exited. The in-flight
// item finishes; remaining queue contents are abandoned by design.
func (w *Worker) Stop() {
	if w.state.CompareAndSwap(int32(StateRunning), int32(StateDraining)) {
		w.cancel()
	}
	if State(w.state.Load()) == StateIdle {
		return
	}
	<-w.done
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// run is the single consumer loop. One bounded wait covers both "new work
// available" and "report interval elapsed"; there are no independent timers
// to race with shutdown.
func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer w.state.Store(int32(StateStopped))
	defer w.logger.Info("ingestion worker stopped")

	nextReport := w.clock.Now().Add(w.cfg.ReportInterval)
	for {
		if ctx.Err() != nil {
			return
		}

		takeCtx, cancel := context.WithTimeout(ctx, w.cfg.PollInterval)
		item, err := w.queue.Take(takeCtx)
		cancel()

		if err == nil {
			// The in-flight item is sheltered from the drain signal so a
			// half-upserted record is never abandoned.
			w.processAlbum(context.WithoutCancel(ctx), item.AlbumID)
		} else if ctx.Err() != nil {
			return
		}

		if now := w.clock.Now(); !now.Before(nextReport) {
			w.report()
			nextReport = now.Add(w.cfg.ReportInterval)
		}
	}
}

// processAlbum is the per-item failure boundary: any error is logged,
// counted, and dropped so the loop always continues.
func (w *Worker) processAlbum(ctx context.Context, albumID string) {
	if err := w.process(ctx, albumID); err != nil {
		w.failures.Add(1)
		metrics.IncItemFailure()
		w.logger.Error("album processing failed",
			zap.String("album_id", albumID),
			zap.Error(err),
		)
	}
}

// Stats is a point-in-time snapshot of the worker counters. Reads are
// approximate under concurrent mutation.
type Stats struct {
	State             string `json:"state"`
	Pending           int    `json:"pending"`
	DiscoveredArtists int    `json:"discovered_artists"`
	DiscoveredAlbums  uint64 `json:"discovered_albums"`
	AlbumsInserted    uint64 `json:"albums_inserted"`
	CacheHits         uint64 `json:"cache_hits"`
	Failures          uint64 `json:"failures"`
}

// Snapshot returns the current statistics.
func (w *Worker) Snapshot() Stats {
	return Stats{
		State:             w.State().String(),
		Pending:           w.queue.Size(),
		DiscoveredArtists: w.frontierSize(),
		DiscoveredAlbums:  w.discovered.Load(),
		AlbumsInserted:    w.inserted.Load(),
		CacheHits:         w.cacheHits.Load(),
		Failures:          w.failures.Load(),
	}
}

func (w *Worker) frontierSize() int {
	w.frontierMu.RLock()
	defer w.frontierMu.RUnlock()
	return len(w.frontier)
}

// report emits the periodic counters to the log and the metrics registry.
func (w *Worker) report() {
	stats := w.Snapshot()
	metrics.ObserveReport(stats.Pending, stats.DiscoveredArtists)
	w.logger.Info("ingestion status",
		zap.Int("pending", stats.Pending),
		zap.Int("discovered_artists", stats.DiscoveredArtists),
		zap.Uint64("discovered_albums", stats.DiscoveredAlbums),
		zap.Uint64("albums_inserted", stats.AlbumsInserted),
		zap.Uint64("cache_hits", stats.CacheHits),
		zap.Uint64("failures", stats.Failures),
	)
}

type noopNotifier struct{}

func (noopNotifier) Publish(_ context.Context, _ string) error { return nil }
func (noopNotifier) Close() error                              { return nil }
