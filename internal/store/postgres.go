// Package store provides the Postgres-backed durable store for album records.
package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rain0r/spotify-metadata-cache/internal/mcache"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore persists album records with last-write-wins upsert semantics.
type PostgresStore struct {
	pool  execQuerier
	table string
}

// New creates a Postgres-backed store using the provided config.
func New(ctx context.Context, cfg Config) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "spotify_metadata_cache"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool execQuerier, table string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "spotify_metadata_cache"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// EnsureSchema creates the album table and its expiry index if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	album_id     TEXT PRIMARY KEY,
	data         JSONB NOT NULL,
	last_refresh TIMESTAMPTZ NOT NULL,
	expires_at   TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	idx := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_expires_at_idx ON %s (expires_at)`,
		s.table, s.table,
	)
	if _, err := s.pool.Exec(ctx, idx); err != nil {
		return fmt.Errorf("create expiry index: %w", err)
	}
	return nil
}

// UpsertAlbum writes the record, overwriting payload and timestamps
// unconditionally on conflict.
func (s *PostgresStore) UpsertAlbum(ctx context.Context, rec mcache.AlbumRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("store is not configured")
	}
	if rec.AlbumID == "" {
		return fmt.Errorf("album id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (album_id, data, last_refresh, expires_at)
     VALUES ($1, $2, $3, $4)
ON CONFLICT (album_id)
  DO UPDATE SET
	data = EXCLUDED.data
	, last_refresh = EXCLUDED.last_refresh
	, expires_at = EXCLUDED.expires_at`, s.table)

	if _, err := s.pool.Exec(ctx, query, rec.AlbumID, rec.Payload, rec.LastRefresh, rec.ExpiresAt); err != nil {
		return fmt.Errorf("upsert album %s: %w", rec.AlbumID, err)
	}
	return nil
}

// HasFresh reports whether an unexpired record exists for the album.
func (s *PostgresStore) HasFresh(ctx context.Context, albumID string, now time.Time) (bool, error) {
	if s == nil || s.pool == nil {
		return false, fmt.Errorf("store is not configured")
	}
	query := fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM %s WHERE album_id = $1 AND expires_at > $2)`,
		s.table,
	)
	var fresh bool
	if err := s.pool.QueryRow(ctx, query, albumID, now).Scan(&fresh); err != nil {
		return false, fmt.Errorf("freshness query for %s: %w", albumID, err)
	}
	return fresh, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
