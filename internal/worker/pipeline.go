package worker

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/rain0r/spotify-metadata-cache/internal/mcache"
	"github.com/rain0r/spotify-metadata-cache/internal/metrics"
)

// process runs the fetch-and-persist pipeline for one album id: freshness
// gate, fetch with full track pagination, frontier expansion, upsert, cache
// marker refresh.
func (w *Worker) process(ctx context.Context, albumID string) error {
	fresh, err := w.cache.Contains(ctx, albumID)
	if err != nil {
		// A broken cache must not stall ingestion; treat as a miss.
		w.logger.Warn("freshness check failed",
			zap.String("album_id", albumID),
			zap.Error(err),
		)
	}
	if fresh {
		w.cacheHits.Add(1)
		metrics.IncFreshnessHit()
		return nil
	}

	// The marker is volatile; a restart may have dropped it while the
	// durable record is still inside its retention window. Verify against
	// the store before paying for a refetch.
	stored, err := w.store.HasFresh(ctx, albumID, w.clock.Now().UTC())
	if err != nil {
		w.logger.Warn("durable freshness check failed",
			zap.String("album_id", albumID),
			zap.Error(err),
		)
	}
	if stored {
		w.cacheHits.Add(1)
		metrics.IncFreshnessHit()
		return nil
	}

	album, err := w.catalog.Album(ctx, albumID)
	if err != nil {
		return fmt.Errorf("fetch detail: %w", err)
	}
	tracks, err := w.catalog.AlbumTracks(ctx, albumID)
	if err != nil {
		return fmt.Errorf("fetch tracks: %w", err)
	}

	// Every artist credited on any track seeds the crawl frontier.
	for _, track := range tracks {
		for _, artist := range track.Artists {
			if artist.ID == "" {
				continue
			}
			if err := w.expand(ctx, artist.ID); err != nil {
				return fmt.Errorf("expand artist %s: %w", artist.ID, err)
			}
		}
	}

	album.Tracks = tracks
	payload, err := json.Marshal(album)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	now := w.clock.Now().UTC()
	expiresAt := now.Add(w.cfg.Retention)
	rec := mcache.AlbumRecord{
		AlbumID:     albumID,
		Payload:     payload,
		LastRefresh: now,
		ExpiresAt:   expiresAt,
	}
	if err := w.store.UpsertAlbum(ctx, rec); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	if err := w.cache.MarkFresh(ctx, albumID, expiresAt); err != nil {
		return fmt.Errorf("refresh cache marker: %w", err)
	}

	w.inserted.Add(1)
	metrics.IncAlbumInserted()

	if err := w.notifier.Publish(ctx, albumID); err != nil {
		w.logger.Warn("completion notification failed",
			zap.String("album_id", albumID),
			zap.Error(err),
		)
	}
	return nil
}
