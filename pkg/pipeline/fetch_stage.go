package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/repo-stars/pkg/client"
	"github.com/rs/zerolog"
)

// fetchStage runs the fetch worker pool and closes out once every worker
// has drained in. Output order is completion order.
func (r *Runner) fetchStage(ctx context.Context, in <-chan resolvedRecord, out chan<- ProjectRecord, logger zerolog.Logger) {
	var wg sync.WaitGroup
	for i := 0; i < r.opts.FetchWorkers; i++ {
		wg.Add(1)
		go r.fetchWorker(ctx, in, out, &wg, i, logger)
	}
	wg.Wait()
	close(out)
}

// fetchWorker enriches records until in is closed.
func (r *Runner) fetchWorker(ctx context.Context, in <-chan resolvedRecord, out chan<- ProjectRecord, wg *sync.WaitGroup, workerID int, logger zerolog.Logger) {
	defer wg.Done()
	processed := 0

	for item := range in {
		stats := r.fetchOne(ctx, item, workerID, logger)
		pipelineRecordsTotal.WithLabelValues(string(stats.Kind)).Inc()

		rec := item.record
		rec.Stats = &stats

		ev := logger.Debug()
		if r.opts.Verbose {
			ev = logger.Info()
		}
		ev.Int("worker_id", workerID).
			Str("url", rec.URL).
			Str("kind", string(stats.Kind)).
			Int("stars", stats.Stars).
			Str("message", stats.Message).
			Msg("Record enriched")

		out <- rec
		processed++
	}

	logger.Debug().
		Int("worker_id", workerID).
		Int("records_processed", processed).
		Msg("Fetch worker finished")
}

// fetchOne produces the Stats for a single record. Unresolved records are
// passed through without touching the network or the quota.
func (r *Runner) fetchOne(ctx context.Context, item resolvedRecord, workerID int, logger zerolog.Logger) Stats {
	if !item.ok {
		return Unresolved()
	}

	if block, wait := r.tracker.ShouldBlock(r.opts.EnforceQuota); block {
		logger.Debug().
			Int("worker_id", workerID).
			Dur("wait", wait).
			Str("endpoint", item.endpoint).
			Msg("Worker sleeping until quota reset")

		start := time.Now()
		if err := sleep(ctx, wait); err != nil {
			logger.Warn().Err(err).Int("worker_id", workerID).Msg("Quota wait interrupted")
		}
		pipelineQuotaWaitSeconds.Observe(time.Since(start).Seconds())

		r.tracker.Refresh(ctx)
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return Failure(fmt.Sprintf("request pacing: %v", err))
		}
	}

	resp := r.fetcher.GetCached(ctx, item.endpoint)
	r.tracker.RecordUse()

	return classify(resp)
}

type repository struct {
	StargazersCount *int `json:"stargazers_count"`
}

// classify turns a response into Success or Failure. Failure messages
// prefer GitHub's own "message" field over generic descriptions.
func classify(resp client.Response) Stats {
	if err := resp.AsError(); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return Failure(apiErr.Message)
		}
		return Failure(err.Error())
	}

	var repo repository
	if err := json.Unmarshal(resp.Body, &repo); err != nil {
		return Failure(fmt.Sprintf("%v: %v", client.ErrMalformedResponse, err))
	}
	if repo.StargazersCount == nil {
		if msg := client.ProviderMessage(resp.Body); msg != "" {
			return Failure(msg)
		}
		return Failure(fmt.Sprintf("%v: missing stargazers_count", client.ErrMalformedResponse))
	}

	return Success(*repo.StargazersCount)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
