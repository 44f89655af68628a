package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/repo-stars/pkg/client"
	"github.com/Sternrassler/repo-stars/pkg/logging"
	"github.com/Sternrassler/repo-stars/pkg/quota"
	"github.com/Sternrassler/repo-stars/pkg/resolve"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Fetcher issues one GET per call. *client.Client implements it.
type Fetcher interface {
	GetCached(ctx context.Context, url string) client.Response
}

// Runner owns the stage wiring for pipeline runs. A Runner may be reused;
// its tracker carries quota state across runs.
type Runner struct {
	opts     Options
	tracker  *quota.Tracker
	fetcher  Fetcher
	resolver resolve.Resolver
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// New creates a Runner. A nil fetcher is replaced by a GitHub client built
// from opts; a nil tracker by one that reads the quota through that client.
func New(opts Options, tracker *quota.Tracker, fetcher Fetcher, logger zerolog.Logger) (*Runner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = client.DefaultBaseURL
	}

	var gh *client.Client
	if fetcher == nil || tracker == nil {
		cfg := client.DefaultConfig(opts.Credential)
		if opts.RequestTimeout > 0 {
			cfg.Timeout = opts.RequestTimeout
		}
		gh = client.New(cfg)
	}
	if fetcher == nil {
		fetcher = gh
	}
	if tracker == nil {
		qcfg := quota.DefaultConfig()
		qcfg.APIBaseURL = opts.APIBaseURL
		tracker = quota.NewTracker(gh, qcfg, logger)
	}

	r := &Runner{
		opts:     opts,
		tracker:  tracker,
		fetcher:  fetcher,
		resolver: resolve.New(opts.APIBaseURL),
		logger:   logger,
	}
	if opts.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return r, nil
}

// Tracker returns the quota tracker shared by the fetch workers.
func (r *Runner) Tracker() *quota.Tracker {
	return r.tracker
}

// Run enriches records and returns them once every record has a Stats.
// The result has the same length as the input, in fetch completion order.
//
// ctx bounds HTTP calls and quota waits only: cancelling it turns the
// remaining fetches into Failure records rather than dropping them.
func (r *Runner) Run(ctx context.Context, records []ProjectRecord) ([]ProjectRecord, error) {
	start := time.Now()
	logger := r.logger.With().Str("run_id", uuid.NewString()).Logger()

	state := r.tracker.Refresh(ctx)
	logger.Info().
		Int("records", len(records)).
		Int("resolution_workers", r.opts.ResolutionWorkers).
		Int("fetch_workers", r.opts.FetchWorkers).
		Bool("enforce_quota", r.opts.EnforceQuota).
		Int("quota_limit", state.Limit).
		Int("quota_used", state.Used).
		Time("quota_reset", state.ResetAt).
		Msg("Starting pipeline run")

	input := make(chan ProjectRecord, r.opts.QueueCapacity)
	resolved := make(chan resolvedRecord, r.opts.QueueCapacity)
	enriched := make(chan ProjectRecord, r.opts.QueueCapacity)

	// Stages never fail; the group only tracks their lifetimes.
	var g errgroup.Group
	g.Go(func() error {
		defer close(input)
		for _, rec := range records {
			rec.Stats = nil
			input <- rec
		}
		return nil
	})
	g.Go(func() error {
		r.resolveStage(input, resolved, logger)
		return nil
	})
	g.Go(func() error {
		r.fetchStage(ctx, resolved, enriched, logger)
		return nil
	})

	results := make([]ProjectRecord, 0, len(records))
	counts := make(map[StatsKind]int, 3)
	for rec := range enriched {
		counts[rec.Stats.Kind]++
		results = append(results, rec)
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("pipeline stage: %w", err)
	}

	elapsed := time.Since(start)
	pipelineRunDuration.Observe(elapsed.Seconds())

	logger.Info().
		Int("records", len(results)).
		Int("success", counts[KindSuccess]).
		Int("failure", counts[KindFailure]).
		Int("unresolved", counts[KindUnresolved]).
		Int("quota_used", r.tracker.State().Used).
		Dur("duration", elapsed).
		Msg("Pipeline run complete")

	return results, nil
}

// Run enriches records with a Runner built from opts alone.
func Run(ctx context.Context, records []ProjectRecord, opts Options) ([]ProjectRecord, error) {
	r, err := New(opts, nil, nil, logging.NewLogger("pipeline"))
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, records)
}
