// Package fetch implements the rate-limited client that retrieves pages
// through a rotating proxy API under independent concurrency and hourly
// throughput ceilings.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stwalsh4118/roofline/internal/logger"
	"github.com/stwalsh4118/roofline/internal/models"
)

// Config holds the fetch client's tunables. Defaults mirror production
// settings for the proxy API.
type Config struct {
	APIKeys         []string
	ProxyEndpoint   string
	MaxConcurrent   int
	RequestsPerHour int
	RetryAttempts   int
	RetryBackoff    time.Duration
	Timeout         time.Duration
	RenderJS        bool
}

// DefaultProxyEndpoint is the rotating proxy API all page fetches go through.
const DefaultProxyEndpoint = "http://api.scraperapi.com"

// Stats are advisory throughput counters for reporting. They are not used
// for correctness.
type Stats struct {
	TotalRequests int64
	Successes     int64
	Failures      int64
	KeyRotations  int64
	PerKeyUsage   map[string]int64
}

// Doer is the subset of http.Client the fetch client needs. Tests substitute
// a fake transport here.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches URLs through the proxy API. Concurrency is bounded by a
// semaphore sized to MaxConcurrent; throughput by an hourly token bucket.
// Both limits apply independently. Safe for concurrent use.
type Client struct {
	cfg    Config
	http   Doer
	log    *logger.Logger
	sem    chan struct{}
	bucket *tokenBucket

	keyCursor atomic.Uint64

	mu       sync.Mutex
	total    int64
	success  int64
	failure  int64
	rotation int64
	keyUsage map[string]int64

	// sleep is swapped out in tests so backoff assertions don't wall-wait.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewClient builds a Client. At least one API key is required.
func NewClient(cfg Config, log *logger.Logger, opts ...ClientOption) (*Client, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("at least one API key is required")
	}
	if cfg.ProxyEndpoint == "" {
		cfg.ProxyEndpoint = DefaultProxyEndpoint
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		log:      log,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
		bucket:   newTokenBucket(cfg.RequestsPerHour),
		keyUsage: make(map[string]int64, len(cfg.APIKeys)),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures a Client beyond its Config.
type ClientOption func(*Client)

// WithHTTPDoer substitutes the underlying HTTP transport.
func WithHTTPDoer(d Doer) ClientOption {
	return func(c *Client) { c.http = d }
}

// WithSleeper substitutes the backoff sleep function.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) bool) ClientOption {
	return func(c *Client) { c.sleep = sleep }
}

// Fetch retrieves target through the proxy API. It never returns a Go error
// for fetch failures: exhausted retries yield a FetchResult with
// Success=false so the caller records the failure and continues the batch.
func (c *Client) Fetch(ctx context.Context, target string) models.FetchResult {
	start := time.Now()

	// Concurrency gate first, then the throughput bucket. The two limits
	// apply independently; neither holds a lock across the request itself.
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return c.failed(target, 0, "cancelled before dispatch", 0, start)
	}
	defer func() { <-c.sem }()

	if !c.bucket.take(ctx) {
		return c.failed(target, 0, "cancelled waiting for rate limit", 0, start)
	}

	var lastStatus int
	var lastErr string

	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		key := c.currentKey()
		c.recordAttempt(key)

		body, status, err := c.doAttempt(ctx, key, target)
		if err == nil {
			c.recordSuccess()
			return models.FetchResult{
				URL:        target,
				Success:    true,
				Body:       body,
				StatusCode: status,
				Attempts:   attempt,
				Duration:   time.Since(start),
				APIKey:     key,
			}
		}

		lastStatus = status
		lastErr = err.Error()
		c.log.Warn("Fetch attempt failed", map[string]interface{}{
			"url":     target,
			"attempt": attempt,
			"status":  status,
			"error":   lastErr,
		})

		if attempt < c.cfg.RetryAttempts {
			c.rotateKey()
			if !c.sleep(ctx, backoffDelay(c.cfg.RetryBackoff, attempt)) {
				return c.failed(target, lastStatus, "cancelled during backoff", attempt, start)
			}
		}
	}

	return c.failed(target,
		lastStatus,
		fmt.Sprintf("failed after %d attempts: %s", c.cfg.RetryAttempts, lastErr),
		c.cfg.RetryAttempts,
		start,
	)
}

// doAttempt performs one proxied GET. Non-2xx statuses and transport errors
// are both returned as errors so the retry loop treats them uniformly.
func (c *Client) doAttempt(ctx context.Context, key, target string) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(c.cfg.ProxyEndpoint)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid proxy endpoint: %w", err)
	}
	q := u.Query()
	q.Set("api_key", key)
	q.Set("url", target)
	q.Set("render", renderFlag(c.cfg.RenderJS))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("http status %d", resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}

// Snapshot returns a copy of the advisory counters.
func (c *Client) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	usage := make(map[string]int64, len(c.keyUsage))
	for k, v := range c.keyUsage {
		usage[k] = v
	}
	return Stats{
		TotalRequests: c.total,
		Successes:     c.success,
		Failures:      c.failure,
		KeyRotations:  c.rotation,
		PerKeyUsage:   usage,
	}
}

func (c *Client) currentKey() string {
	idx := c.keyCursor.Load() % uint64(len(c.cfg.APIKeys))
	return c.cfg.APIKeys[idx]
}

func (c *Client) rotateKey() {
	c.keyCursor.Add(1)
	c.mu.Lock()
	c.rotation++
	c.mu.Unlock()
}

func (c *Client) recordAttempt(key string) {
	c.mu.Lock()
	c.total++
	c.keyUsage[key]++
	c.mu.Unlock()
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	c.success++
	c.mu.Unlock()
}

func (c *Client) failed(target string, status int, msg string, attempts int, start time.Time) models.FetchResult {
	c.mu.Lock()
	c.failure++
	c.mu.Unlock()
	return models.FetchResult{
		URL:        target,
		Success:    false,
		StatusCode: status,
		Error:      msg,
		Attempts:   attempts,
		Duration:   time.Since(start),
	}
}

// backoffDelay computes backoff * 2^(attempt-1) plus jitter of up to half
// the base, so retries across workers do not synchronize. Jitter below the
// base keeps successive delays strictly increasing for any base.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	return d + time.Duration(rand.Float64()*float64(base)/2)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func renderFlag(render bool) string {
	if render {
		return "true"
	}
	return "false"
}
