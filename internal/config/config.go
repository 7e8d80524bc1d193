// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Spotify SpotifyConfig `mapstructure:"spotify"`
	DB      DBConfig      `mapstructure:"db"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the HTTP submission/metrics surface.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// SpotifyConfig configures the catalog API client.
type SpotifyConfig struct {
	ClientID          string  `mapstructure:"client_id"`
	ClientSecret      string  `mapstructure:"client_secret"`
	BaseURL           string  `mapstructure:"base_url"`
	TokenURL          string  `mapstructure:"token_url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	MaxRetries        int     `mapstructure:"max_retries"`
	BackoffInitialMs  int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs      int     `mapstructure:"backoff_max_ms"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// DBConfig controls access to the durable store.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// CacheConfig controls the freshness cache.
type CacheConfig struct {
	Dir      string `mapstructure:"dir"`
	InMemory bool   `mapstructure:"in_memory"`
}

// WorkerConfig governs the ingestion loop.
type WorkerConfig struct {
	RetentionDays         int `mapstructure:"retention_days"`
	ReportIntervalSeconds int `mapstructure:"report_interval_seconds"`
	PollIntervalSeconds   int `mapstructure:"poll_interval_seconds"`
}

// NotifyConfig selects the completion notification provider.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MDCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("spotify.base_url", "https://api.spotify.com/v1")
	v.SetDefault("spotify.token_url", "https://accounts.spotify.com/api/token")
	v.SetDefault("spotify.timeout_seconds", 15)
	v.SetDefault("spotify.max_retries", 3)
	v.SetDefault("spotify.backoff_initial_ms", 250)
	v.SetDefault("spotify.backoff_max_ms", 5000)
	v.SetDefault("spotify.requests_per_second", 5)
	v.SetDefault("db.provider", "postgres")
	v.SetDefault("db.table", "spotify_metadata_cache")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("cache.dir", "data/freshness")
	v.SetDefault("cache.in_memory", false)
	v.SetDefault("worker.retention_days", 180)
	v.SetDefault("worker.report_interval_seconds", 60)
	v.SetDefault("worker.poll_interval_seconds", 5)
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Spotify.TimeoutSeconds <= 0 {
		return fmt.Errorf("spotify.timeout_seconds must be > 0")
	}
	if c.Spotify.RequestsPerSecond <= 0 {
		return fmt.Errorf("spotify.requests_per_second must be > 0")
	}
	switch c.DB.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is 'postgres'")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown db provider: %s", c.DB.Provider)
	}
	if !c.Cache.InMemory && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must be set unless cache.in_memory is true")
	}
	if c.Worker.RetentionDays <= 0 {
		return fmt.Errorf("worker.retention_days must be > 0")
	}
	if c.Worker.PollIntervalSeconds <= 0 {
		return fmt.Errorf("worker.poll_interval_seconds must be > 0")
	}
	switch c.Notify.Provider {
	case "noop":
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.TopicID == "" {
			return fmt.Errorf("notify.project_id and notify.topic_id must be set when notify.provider is 'pubsub'")
		}
	default:
		return fmt.Errorf("unknown notify provider: %s", c.Notify.Provider)
	}
	return nil
}

// Retention converts the configured retention window to a duration.
func (c WorkerConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// ReportInterval returns the reporting cadence as a duration.
func (c WorkerConfig) ReportInterval() time.Duration {
	return time.Duration(c.ReportIntervalSeconds) * time.Second
}

// PollInterval returns the idle wake cadence as a duration.
func (c WorkerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
