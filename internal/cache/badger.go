// Package cache implements the freshness gate on BadgerDB.
//
// Markers are written with a TTL in a single atomic set, so a marker can
// never exist with an expiry other than the one intended for its durable
// backing record.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const keyPrefix = "spotify:album:"

// present is the sentinel value; only key presence matters.
var present = []byte{1}

// BadgerCache is a FreshnessCache backed by an embedded Badger store.
type BadgerCache struct {
	db     *badger.DB
	logger *zap.Logger
}

// New opens (or creates) the cache at dir. When inMemory is set, dir is
// ignored and nothing is persisted; restarts then re-verify against the
// durable store, which is safe because absence only forces a re-check.
func New(dir string, inMemory bool, logger *zap.Logger) (*BadgerCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := badger.DefaultOptions(dir).
		WithInMemory(inMemory).
		WithLogger(nil)
	if inMemory {
		opts.Dir = ""
		opts.ValueDir = ""
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open freshness cache: %w", err)
	}
	return &BadgerCache{db: db, logger: logger}, nil
}

// Contains reports whether a fresh marker exists for the album. Badger hides
// TTL-expired keys from reads, so an expired marker reads as absent.
func (c *BadgerCache) Contains(_ context.Context, albumID string) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(keyPrefix + albumID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("freshness lookup for %s: %w", albumID, err)
	}
	return true, nil
}

// MarkFresh writes a presence marker that expires at expiresAt. An already
// past expiry writes nothing: a dead marker must not shadow a re-fetch.
func (c *BadgerCache) MarkFresh(_ context.Context, albumID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		c.logger.Warn("skipping freshness marker with past expiry",
			zap.String("album_id", albumID),
			zap.Time("expires_at", expiresAt),
		)
		return nil
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+albumID), present).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("mark fresh %s: %w", albumID, err)
	}
	return nil
}

// Close releases the underlying Badger resources.
func (c *BadgerCache) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close freshness cache: %w", err)
	}
	return nil
}
