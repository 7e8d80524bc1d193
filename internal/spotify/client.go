// Package spotify implements the catalog API client used by the ingestion
// pipeline. It owns token management, pagination, request pacing and
// retry-with-backoff, so callers only ever see exhausted-retry failures.
package spotify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rain0r/spotify-metadata-cache/internal/metrics"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"

	// pageLimit is the largest page size the listing endpoints accept.
	pageLimit = 50

	// tokenExpiryBuffer triggers a refresh slightly before the token dies so
	// an in-flight request never carries a token about to expire.
	tokenExpiryBuffer = 60 * time.Second
)

// Config controls client behavior.
type Config struct {
	ClientID          string
	ClientSecret      string
	BaseURL           string
	TokenURL          string
	Timeout           time.Duration
	MaxRetries        int
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	RequestsPerSecond float64
}

// Client is a Spotify Web API client scoped to the endpoints the ingestion
// worker needs. Safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	retry   retryPolicy
	logger  *zap.Logger

	tokenMu     sync.RWMutex
	token       string
	tokenExpiry time.Time
}

// New validates the config and constructs a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("spotify client id and secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		retry:   newRetryPolicy(cfg.MaxRetries, cfg.BackoffInitial, cfg.BackoffMax),
		logger:  logger,
	}, nil
}

// accessToken returns a valid bearer token, fetching a fresh one via the
// client-credentials flow when the cached token is missing or near expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	now := time.Now()

	c.tokenMu.RLock()
	if c.token != "" && now.Before(c.tokenExpiry.Add(-tokenExpiryBuffer)) {
		token := c.token
		c.tokenMu.RUnlock()
		return token, nil
	}
	c.tokenMu.RUnlock()

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	// Another goroutine may have refreshed while we waited for the lock.
	now = time.Now()
	if c.token != "" && now.Before(c.tokenExpiry.Add(-tokenExpiryBuffer)) {
		return c.token, nil
	}

	token, expiry, err := c.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.tokenExpiry = expiry
	c.logger.Debug("fetched catalog API token", zap.Time("expires_at", expiry))
	return token, nil
}

func (c *Client) fetchToken(ctx context.Context) (string, time.Time, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", time.Time{}, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", time.Time{}, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token endpoint returned an empty token")
	}
	return payload.AccessToken, time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second), nil
}

// invalidateToken drops the cached token after a 401 so the next attempt
// fetches a fresh one.
func (c *Client) invalidateToken() {
	c.tokenMu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.tokenMu.Unlock()
}

// getJSON performs a GET with pacing, auth and retry, decoding the body into
// out on success.
func (c *Client) getJSON(ctx context.Context, endpoint, requestURL string, out any) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		retryAfter, err := c.doOnce(ctx, endpoint, requestURL, out)
		if err == nil {
			return nil
		}
		lastErr = err

		if !c.retry.shouldRetry(err, attempt) {
			return fmt.Errorf("%s request: %w", endpoint, lastErr)
		}
		delay := c.retry.backoff(attempt)
		if retryAfter > delay {
			delay = retryAfter
		}
		c.logger.Debug("retrying catalog API request",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// doOnce issues a single request. The returned duration carries a server
// supplied Retry-After hint, zero when absent.
func (c *Client) doOnce(ctx context.Context, endpoint, requestURL string, out any) (time.Duration, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(endpoint, 0, time.Since(start))
		return 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveAPIRequest(endpoint, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, fmt.Errorf("decode response: %w", err)
		}
		return 0, nil
	case resp.StatusCode == http.StatusUnauthorized:
		c.invalidateToken()
		return 0, &statusError{code: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return parseRetryAfter(resp.Header.Get("Retry-After")), &statusError{code: resp.StatusCode}
	default:
		return 0, &statusError{code: resp.StatusCode}
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// statusError marks non-200 responses so the retry policy can branch on the
// status code.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("catalog API returned status %d", e.code)
}
