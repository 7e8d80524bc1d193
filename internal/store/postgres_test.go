package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/rain0r/spotify-metadata-cache/internal/mcache"
)

func TestUpsertAlbumWritesRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "spotify_metadata_cache")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := mcache.AlbumRecord{
		AlbumID:     "4aawyAB9vmqN3uQ7FjRGTy",
		Payload:     []byte(`{"id":"4aawyAB9vmqN3uQ7FjRGTy"}`),
		LastRefresh: now,
		ExpiresAt:   now.Add(180 * 24 * time.Hour),
	}

	mock.ExpectExec("INSERT INTO spotify_metadata_cache").
		WithArgs(rec.AlbumID, rec.Payload, rec.LastRefresh, rec.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.UpsertAlbum(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertAlbumRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "")
	require.NoError(t, err)

	err = s.UpsertAlbum(context.Background(), mcache.AlbumRecord{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasFresh(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "spotify_metadata_cache")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("abc", now).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	fresh, err := s.HasFresh(context.Background(), "abc", now)
	require.NoError(t, err)
	require.True(t, fresh)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchemaCreatesTableAndIndex(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "spotify_metadata_cache")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS spotify_metadata_cache").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS spotify_metadata_cache_expires_at_idx").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolRejectsBadTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "drop table; --")
	require.Error(t, err)
}
