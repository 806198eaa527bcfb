package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vietddude/guildhall/internal/metrics"
)

// ClientConfig holds settings for the upstream API client.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 = unlimited
	Burst     int
	UserAgent string
	Retry     RetryConfig
}

// HealthStatus represents the health of the upstream API as seen by the client.
type HealthStatus struct {
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
	Requests      int           `json:"requests"`
}

// Client performs JSON GET requests against the guild API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryConfig

	mu           sync.RWMutex
	health       HealthStatus
	totalLatency time.Duration
	successCount int
	failureCount int
	requestCount int
}

// NewClient creates a new API client.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		retry:     cfg.Retry,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		health: HealthStatus{
			Available:     true,
			LastSuccessAt: time.Now(),
		},
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetJSON fetches path and decodes the JSON body into out. Every failure,
// network or HTTP status, wraps ErrUnavailable. Retryable failures are
// retried per the client's RetryConfig.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	endpoint := endpointLabel(path)

	if c.baseURL == "" {
		metrics.APIRequestsTotal.WithLabelValues(endpoint).Inc()
		c.fail(endpoint, "config")
		return fmt.Errorf("%w: api base url not configured", ErrUnavailable)
	}

	return withRetry(ctx, c.retry, func() error {
		return c.get(ctx, endpoint, path, out)
	})
}

func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	metrics.APIRequestsTotal.WithLabelValues(endpoint).Inc()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.fail(endpoint, "rate_limit")
			return fmt.Errorf("%w: rate limiter: %w", ErrUnavailable, err)
		}
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		c.fail(endpoint, "request")
		return fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.fail(endpoint, "network")
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.fail(endpoint, "read")
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.fail(endpoint, fmt.Sprintf("http_%d", resp.StatusCode))
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.fail(endpoint, "decode")
		return &decodeError{err: err}
	}

	latency := time.Since(start)
	metrics.APILatency.WithLabelValues(endpoint).Observe(latency.Seconds())
	c.recordSuccess(latency)
	return nil
}

// GetHealth returns the client's health status.
func (c *Client) GetHealth() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// Close cleans up resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) fail(endpoint, errorType string) {
	metrics.APIErrorsTotal.WithLabelValues(endpoint, errorType).Inc()
	c.recordFailure()
}

func (c *Client) recordSuccess(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.successCount++
	c.requestCount++
	c.totalLatency += latency
	c.health.LastSuccessAt = time.Now()
	c.health.Available = true
	c.health.Requests = c.requestCount

	if c.requestCount > 0 {
		c.health.ErrorRate = float64(c.failureCount) / float64(c.requestCount)
	}
	if c.successCount > 0 {
		c.health.Latency = c.totalLatency / time.Duration(c.successCount)
	}
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failureCount++
	c.requestCount++
	c.health.LastFailureAt = time.Now()
	c.health.Requests = c.requestCount

	if c.requestCount > 0 {
		c.health.ErrorRate = float64(c.failureCount) / float64(c.requestCount)
	}

	if c.health.ErrorRate > 0.5 {
		c.health.Available = false
	}
}

// endpointLabel keeps metric cardinality bounded by dropping slugs.
func endpointLabel(path string) string {
	switch {
	case strings.HasPrefix(path, guildBySlugPrefix):
		return guildBySlugPrefix + ":slug"
	default:
		return path
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
