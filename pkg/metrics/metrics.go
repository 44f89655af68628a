// Package metrics exposes the Prometheus registry used by repo-stars.
// All metrics are defined in their respective packages (client, cache,
// quota, pipeline) and registered there through promauto; this package
// serves them and documents what exists.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Registry is the default Prometheus registry used by repo-stars.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry's read side.
var Gatherer = prometheus.DefaultGatherer

// Path is where Serve exposes metrics.
const Path = "/metrics"

// Handler returns the HTTP handler for the default registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Serve exposes Handler on addr until ctx is done. It returns nil after a
// clean shutdown.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(Path, Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// Metrics Documentation
//
// Quota Metrics (pkg/quota):
//   - repo_stars_quota_limit (Gauge): Request limit of the current window
//   - repo_stars_quota_used (Gauge): Requests used in the current window
//   - repo_stars_quota_blocks_total (Counter): Fetches that had to wait for a reset
//   - repo_stars_quota_refresh_failures_total (Counter): Failed /rate_limit reads
//
// Cache Metrics (pkg/cache):
//   - repo_stars_cache_hits_total (Counter): Cache hits
//   - repo_stars_cache_misses_total (Counter): Cache misses
//   - repo_stars_cache_bytes_written_total (Counter): Entry bytes written to Redis, Touch rewrites included
//   - repo_stars_304_responses_total (Counter): 304 Not Modified answered from cache
//   - repo_stars_cache_errors_total{operation} (Counter): Cache operation errors
//
// Request Metrics (pkg/client):
//   - repo_stars_github_requests_total{status} (Counter): Requests by HTTP status
//   - repo_stars_github_request_duration_seconds (Histogram): Request duration
//   - repo_stars_github_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Pipeline Metrics (pkg/pipeline):
//   - repo_stars_pipeline_records_total{kind} (Counter): Enriched records by kind
//   - repo_stars_pipeline_quota_wait_seconds (Histogram): Time spent waiting for a reset
//   - repo_stars_pipeline_run_duration_seconds (Histogram): Wall time per run
//
// Example Prometheus Queries:
//
//   # Failure ratio
//   sum(rate(repo_stars_pipeline_records_total{kind="failure"}[1h])) /
//   sum(rate(repo_stars_pipeline_records_total[1h]))
//
//   # Quota headroom
//   repo_stars_quota_limit - repo_stars_quota_used
//
//   # Requests saved by conditional revalidation
//   rate(repo_stars_304_responses_total[1h])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(repo_stars_github_request_duration_seconds_bucket[5m]))
