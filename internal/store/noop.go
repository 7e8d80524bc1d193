package store

import (
	"context"
	"time"

	"github.com/rain0r/spotify-metadata-cache/internal/mcache"
)

// NoOp is a RecordStore that discards writes and reports nothing as fresh.
// Useful for local development without a database.
type NoOp struct{}

// UpsertAlbum discards the record.
func (NoOp) UpsertAlbum(_ context.Context, _ mcache.AlbumRecord) error { return nil }

// HasFresh always reports stale so every lookup proceeds.
func (NoOp) HasFresh(_ context.Context, _ string, _ time.Time) (bool, error) {
	return false, nil
}

// Close does nothing.
func (NoOp) Close() {}
