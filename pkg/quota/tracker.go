package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/repo-stars/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for quota tracking.
var (
	quotaLimit = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "repo_stars_quota_limit",
		Help: "Request limit of the current GitHub quota window",
	})

	quotaUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "repo_stars_quota_used",
		Help: "Requests spent in the current GitHub quota window",
	})

	quotaBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repo_stars_quota_blocks_total",
		Help: "Total number of times a worker had to wait for the quota reset",
	})

	quotaRefreshFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repo_stars_quota_refresh_failures_total",
		Help: "Total number of quota refreshes that fell back to the default state",
	})
)

// Source issues the GET against the quota status endpoint.
// *client.Client satisfies it.
type Source interface {
	Get(ctx context.Context, url string) client.Response
}

// Config holds tracker configuration.
type Config struct {
	// APIBaseURL is the API root; the tracker queries APIBaseURL + StatusPath.
	APIBaseURL string

	// JitterPadding is added to the reset time before deciding to wait.
	// Zero means DefaultJitterPadding; a negative value disables padding.
	JitterPadding time.Duration

	// Clock returns the current time (default: time.Now).
	Clock func() time.Time
}

// DefaultConfig returns the configuration for the public GitHub API.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:    client.DefaultBaseURL,
		JitterPadding: DefaultJitterPadding,
	}
}

// Tracker holds the shared quota state and gates requests.
// All methods are safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	state State

	source    Source
	statusURL string
	padding   time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// NewTracker creates a new quota tracker.
// The initial state is DefaultState until the first Refresh.
func NewTracker(source Source, cfg Config, logger zerolog.Logger) *Tracker {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = client.DefaultBaseURL
	}
	switch {
	case cfg.JitterPadding == 0:
		cfg.JitterPadding = DefaultJitterPadding
	case cfg.JitterPadding < 0:
		cfg.JitterPadding = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Tracker{
		state:     DefaultState(cfg.Clock()),
		source:    source,
		statusURL: strings.TrimRight(cfg.APIBaseURL, "/") + StatusPath,
		padding:   cfg.JitterPadding,
		now:       cfg.Clock,
		logger:    logger,
	}
}

// rateLimitResponse is the subset of GET /rate_limit we read.
type rateLimitResponse struct {
	Rate *struct {
		Limit int   `json:"limit"`
		Used  int   `json:"used"`
		Reset int64 `json:"reset"`
	} `json:"rate"`
}

// Refresh queries the quota status endpoint and replaces the state with the
// server view. Any failure installs DefaultState instead, so a broken quota
// endpoint never stalls the pipeline. Returns the state now in effect.
func (t *Tracker) Refresh(ctx context.Context) State {
	state, err := t.fetch(ctx)
	if err != nil {
		quotaRefreshFailuresTotal.Inc()
		state = DefaultState(t.now())
		t.logger.Warn().
			Err(err).
			Int("limit", state.Limit).
			Msg("Quota refresh failed, using conservative default")
	}

	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	t.publish(state)

	t.logger.Info().
		Int("limit", state.Limit).
		Int("used", state.Used).
		Time("reset_at", state.ResetAt).
		Msg("Quota state refreshed")

	return state
}

func (t *Tracker) fetch(ctx context.Context) (State, error) {
	if t.source == nil {
		return State{}, fmt.Errorf("no quota source configured")
	}

	resp := t.source.Get(ctx, t.statusURL)
	if err := resp.AsError(); err != nil {
		return State{}, fmt.Errorf("get %s: %w", t.statusURL, err)
	}

	var payload rateLimitResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return State{}, fmt.Errorf("%w: %v", client.ErrMalformedResponse, err)
	}
	if payload.Rate == nil {
		return State{}, fmt.Errorf("%w: missing rate object", client.ErrMalformedResponse)
	}

	return State{
		Limit:   payload.Rate.Limit,
		Used:    payload.Rate.Used,
		ResetAt: time.UnixMilli(payload.Rate.Reset * 1000),
	}, nil
}

// RecordUse counts one completed request against the quota.
func (t *Tracker) RecordUse() {
	t.mu.Lock()
	t.state.Used++
	used := t.state.Used
	t.mu.Unlock()

	quotaUsed.Set(float64(used))
}

// ShouldBlock reports whether a request must wait for the quota reset and
// for how long. It blocks only when enforce is set, the quota is exhausted,
// and the padded reset time is still in the future.
func (t *Tracker) ShouldBlock(enforce bool) (bool, time.Duration) {
	if !enforce {
		return false, 0
	}

	t.mu.Lock()
	state := t.state
	t.mu.Unlock()

	if !state.Exhausted() {
		return false, 0
	}

	wait := state.TimeUntilReset(t.now(), t.padding)
	if wait <= 0 {
		return false, 0
	}

	quotaBlocksTotal.Inc()
	t.logger.Warn().
		Int("limit", state.Limit).
		Int("used", state.Used).
		Dur("wait", wait).
		Msg("Quota exhausted - waiting for reset")

	return true, wait
}

// State returns a consistent copy of the current quota state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Set replaces the state directly (warm start, tests).
func (t *Tracker) Set(state State) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	t.publish(state)
}

func (t *Tracker) publish(state State) {
	quotaLimit.Set(float64(state.Limit))
	quotaUsed.Set(float64(state.Used))
}
