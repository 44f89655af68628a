// Package client provides the GitHub REST client used by the star pipeline:
// one GET per call, fixed API headers, optional bearer credential and an
// optional Redis ETag cache for conditional requests.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/repo-stars/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com"

	// APIVersion is sent in the X-GitHub-Api-Version header.
	APIVersion = "2022-11-28"

	// DefaultUserAgent identifies the client to GitHub (a User-Agent is mandatory).
	DefaultUserAgent = "repo-stars/0.1.0"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 1 << 20
)

// Prometheus metrics for GitHub client operations.
var (
	githubRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repo_stars_github_requests_total",
		Help: "Total GitHub requests by status",
	}, []string{"status"})

	githubRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "repo_stars_github_request_duration_seconds",
		Help:    "GitHub request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	githubErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repo_stars_github_errors_total",
		Help: "Total GitHub errors by class",
	}, []string{"class"})
)

// Response is the outcome of a single GET.
// Err is set for transport failures; StatusCode and Body are zero then.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Err        error

	// FromCache reports that GitHub answered 304 and Body came from the cache.
	FromCache bool
}

// OK reports a transport success with a 2xx status.
func (r Response) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Config holds the client configuration.
type Config struct {
	// Token is attached as "Authorization: Bearer <token>" when non-empty.
	Token string

	// UserAgent header (GitHub rejects requests without one)
	UserAgent string

	// Timeout per request
	Timeout time.Duration

	// Cache enables conditional requests in GetCached. Optional.
	Cache *cache.Manager
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(token string) Config {
	return Config{
		Token:     token,
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
	}
}

// Client is the GitHub REST client.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// New creates a new GitHub client.
func New(cfg Config) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  cfg.Cache,
		config: cfg,
		logger: log.With().Str("component", "github-client").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetLogger replaces the client logger.
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// Authenticated reports whether requests carry a credential.
func (c *Client) Authenticated() bool {
	return c.config.Token != ""
}

// Get performs a plain GET against an absolute API URL.
func (c *Client) Get(ctx context.Context, url string) Response {
	return c.do(ctx, url, nil)
}

// GetCached performs a GET that revalidates a cached body with
// If-None-Match. A 304 is answered from the cache with FromCache set.
// Without a configured cache it behaves like Get.
func (c *Client) GetCached(ctx context.Context, url string) Response {
	if c.cache == nil {
		return c.do(ctx, url, nil)
	}

	key := cache.Key{Endpoint: url, Authenticated: c.Authenticated()}

	entry, err := c.cache.Get(ctx, key)
	if err != nil && err != cache.ErrCacheMiss {
		c.logger.Warn().Err(err).Str("endpoint", url).Msg("Cache get error")
	}

	resp := c.do(ctx, url, entry)

	switch {
	case resp.Err == nil && resp.StatusCode == http.StatusNotModified && entry != nil:
		cache.NotModifiedResponses.Inc()
		if err := c.cache.Touch(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", url).Msg("Failed to extend cache entry")
		}
		c.logger.Debug().Str("endpoint", url).Msg("304 Not Modified - using cache")
		return Response{
			StatusCode: entry.StatusCode,
			Body:       entry.Data,
			Header:     resp.Header,
			FromCache:  true,
		}

	case resp.Err == nil && resp.StatusCode == http.StatusOK:
		newEntry, err := cache.NewEntry(resp.StatusCode, resp.Header, resp.Body, c.cache.Retention())
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
			break
		}
		if !cache.ShouldMakeConditionalRequest(newEntry) {
			break
		}
		if err := c.cache.Set(ctx, key, newEntry); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", url).Msg("Failed to cache response")
		}
	}

	return resp
}

// do executes one GET. entry, when non-nil, adds conditional headers.
func (c *Client) do(ctx context.Context, url string, entry *cache.Entry) Response {
	startTime := time.Now()
	defer func() {
		githubRequestDuration.Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		githubErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return Response{Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", APIVersion)
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	if cache.ShouldMakeConditionalRequest(entry) {
		cache.AddConditionalHeaders(req, entry)
	}

	c.logger.Debug().
		Str("endpoint", url).
		Bool("conditional", entry != nil).
		Msg("Executing GitHub request")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("endpoint", url).Msg("HTTP request failed")
		githubErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		githubRequestsTotal.WithLabelValues("network_error").Inc()
		return Response{Err: err}
	}
	defer func() {
		if cerr := httpResp.Body.Close(); cerr != nil {
			c.logger.Error().Err(cerr).Str("endpoint", url).Msg("Close body failed")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		githubErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		githubRequestsTotal.WithLabelValues("network_error").Inc()
		return Response{Err: fmt.Errorf("read response body: %w", err)}
	}

	resp := Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Header:     httpResp.Header,
	}

	githubRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	if class := Classify(resp); class != "" {
		githubErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("endpoint", url).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("GitHub request error")
	}

	return resp
}
