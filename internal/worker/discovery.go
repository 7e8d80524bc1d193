package worker

import (
	"context"
	"fmt"

	"github.com/rain0r/spotify-metadata-cache/internal/mcache"
	"github.com/rain0r/spotify-metadata-cache/internal/metrics"
)

// expand enumerates an artist's full catalog and submits every album at
// discovered priority. The artist joins the frontier before the network call
// so a concurrent expansion of the same artist is a no-op, and the frontier
// is never pruned for the life of the process.
func (w *Worker) expand(ctx context.Context, artistID string) error {
	w.frontierMu.Lock()
	if _, seen := w.frontier[artistID]; seen {
		w.frontierMu.Unlock()
		return nil
	}
	w.frontier[artistID] = struct{}{}
	w.frontierMu.Unlock()

	// Partial pages are still submitted below when pagination fails midway;
	// discovery is best-effort.
	albums, err := w.catalog.ArtistAlbums(ctx, artistID)
	for _, album := range albums {
		if album.ID == "" {
			continue
		}
		submitted := w.queue.Submit(mcache.WorkItem{
			Priority: mcache.PriorityDiscovered,
			AlbumID:  album.ID,
		})
		if submitted {
			w.discovered.Add(1)
			metrics.IncAlbumDiscovered()
		}
	}
	if err != nil {
		return fmt.Errorf("enumerate catalog of artist %s: %w", artistID, err)
	}
	return nil
}
