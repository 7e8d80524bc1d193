package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	mux         *http.ServeMux
	server      *httptest.Server
	tokenCalls  atomic.Int64
	tokenSerial atomic.Int64
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	f := &fakeCatalog{mux: http.NewServeMux()}
	f.mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("token-%d", f.tokenSerial.Add(1)),
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCatalog) client(t *testing.T) *Client {
	t.Helper()
	c, err := New(Config{
		ClientID:          "id",
		ClientSecret:      "secret",
		BaseURL:           f.server.URL,
		TokenURL:          f.server.URL + "/token",
		MaxRetries:        3,
		BackoffInitial:    time.Millisecond,
		BackoffMax:        5 * time.Millisecond,
		RequestsPerSecond: 1000,
	}, nil)
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil)
	require.Error(t, err)
}

func TestAlbumFetchesDetail(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.mux.HandleFunc("/albums/4aawy", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           "4aawy",
			"name":         "Global Warming",
			"album_type":   "album",
			"release_date": "2012-11-16",
			"total_tracks": 18,
			"artists":      []map[string]string{{"id": "art1", "name": "Pitbull"}},
		})
	})

	album, err := f.client(t).Album(context.Background(), "4aawy")
	require.NoError(t, err)
	require.Equal(t, "4aawy", album.ID)
	require.Equal(t, "Global Warming", album.Name)
	require.Equal(t, 18, album.TotalTracks)
	require.Len(t, album.Artists, 1)
	require.Empty(t, album.Tracks)
	require.EqualValues(t, 1, f.tokenCalls.Load())
}

func TestAlbumTracksWalksAllPages(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.mux.HandleFunc("/albums/abc/tracks", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "50" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{"id": "t3", "name": "three"}},
				"next":  nil,
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "t1", "name": "one"},
				{"id": "t2", "name": "two"},
			},
			"next": f.server.URL + "/albums/abc/tracks?limit=50&offset=50",
		})
	})

	tracks, err := f.client(t).AlbumTracks(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, tracks, 3)
	require.Equal(t, "t3", tracks[2].ID)
}

func TestArtistAlbumsReturnsPartialOnPageFailure(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.mux.HandleFunc("/artists/art1/albums", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "50" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"id": "al1"}, {"id": "al2"}},
			"next":  f.server.URL + "/artists/art1/albums?limit=50&offset=50",
		})
	})

	albums, err := f.client(t).ArtistAlbums(context.Background(), "art1")
	require.Error(t, err)
	require.Len(t, albums, 2)
}

func TestGetJSONRetriesOnRateLimit(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	var calls atomic.Int64
	f.mux.HandleFunc("/albums/rl", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "rl", "name": "retried"})
	})

	album, err := f.client(t).Album(context.Background(), "rl")
	require.NoError(t, err)
	require.Equal(t, "retried", album.Name)
	require.EqualValues(t, 2, calls.Load())
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	var calls atomic.Int64
	f.mux.HandleFunc("/albums/gone", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := f.client(t).Album(context.Background(), "gone")
	require.Error(t, err)
	require.EqualValues(t, 1, calls.Load())
}

func TestUnauthorizedRefreshesToken(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	var calls atomic.Int64
	f.mux.HandleFunc("/albums/auth", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.Equal(t, "Bearer token-2", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "auth"})
	})

	album, err := f.client(t).Album(context.Background(), "auth")
	require.NoError(t, err)
	require.Equal(t, "auth", album.ID)
	require.EqualValues(t, 2, f.tokenCalls.Load())
}

func TestTokenIsCachedAcrossRequests(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.mux.HandleFunc("/albums/one", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "one"})
	})
	f.mux.HandleFunc("/albums/two", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "two"})
	})

	c := f.client(t)
	_, err := c.Album(context.Background(), "one")
	require.NoError(t, err)
	_, err = c.Album(context.Background(), "two")
	require.NoError(t, err)
	require.EqualValues(t, 1, f.tokenCalls.Load())
}

func TestRetryPolicyBackoffIsCapped(t *testing.T) {
	t.Parallel()

	p := newRetryPolicy(3, 100*time.Millisecond, time.Second)
	for attempt := 0; attempt < 10; attempt++ {
		d := p.backoff(attempt)
		require.Greater(t, d, time.Duration(0))
		require.LessOrEqual(t, d, time.Second)
	}
}
