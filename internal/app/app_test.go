package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rain0r/spotify-metadata-cache/internal/config"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.Spotify.ClientID = "id"
	cfg.Spotify.ClientSecret = "secret"
	cfg.DB.Provider = "noop"
	cfg.Cache.InMemory = true
	cfg.Notify.Provider = "noop"
	cfg.Worker.RetentionDays = 180
	cfg.Worker.ReportIntervalSeconds = 60
	cfg.Worker.PollIntervalSeconds = 1
	return cfg
}

func TestNew_WiresNoOpProviders(t *testing.T) {
	a, err := New(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Store)
	require.NotNil(t, a.Cache)
	require.NotNil(t, a.Catalog)
	require.NotNil(t, a.Notifier)
	require.NotNil(t, a.Worker)
	require.NotNil(t, a.Server)
}

func TestNew_UnknownDBProvider(t *testing.T) {
	cfg := testConfig()
	cfg.DB.Provider = "oracle"

	_, err := New(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "unknown db provider")
}

func TestNew_UnknownNotifyProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Notify.Provider = "kafka"

	_, err := New(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "unknown notify provider")
}

func TestNew_MissingSpotifyCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.Spotify.ClientID = ""

	_, err := New(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "client id and secret")
}
