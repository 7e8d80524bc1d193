package mcache

import (
	"context"
	"time"
)

// CatalogClient fetches album and artist data from the external catalog API.
// Implementations own pagination, retries and rate limiting; errors reaching
// the pipeline mean retries were exhausted.
type CatalogClient interface {
	// Album returns the album detail without its track listing.
	Album(ctx context.Context, albumID string) (Album, error)
	// AlbumTracks returns the album's full track listing across all pages.
	AlbumTracks(ctx context.Context, albumID string) ([]Track, error)
	// ArtistAlbums enumerates the artist's full catalog. On a pagination
	// failure it returns the pages collected so far alongside the error, so
	// best-effort discovery can still submit them.
	ArtistAlbums(ctx context.Context, artistID string) ([]Album, error)
}

// RecordStore is the durable keyed store for album payloads.
type RecordStore interface {
	UpsertAlbum(ctx context.Context, rec AlbumRecord) error
	// HasFresh reports whether a record exists whose expiry is after now.
	HasFresh(ctx context.Context, albumID string, now time.Time) (bool, error)
	Close()
}

// FreshnessCache is the low-latency gate in front of the durable store. A
// present marker means the album was persisted within the retention window;
// absence only means the store must be consulted (or the album refetched).
type FreshnessCache interface {
	Contains(ctx context.Context, albumID string) (bool, error)
	// MarkFresh writes a presence marker expiring at expiresAt. The marker
	// must never outlive the durable record it guards.
	MarkFresh(ctx context.Context, albumID string, expiresAt time.Time) error
	Close() error
}

// Notifier publishes the id of each successfully persisted album.
// Fire-and-forget; failures never fail the item.
type Notifier interface {
	Publish(ctx context.Context, albumID string) error
	Close() error
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}
