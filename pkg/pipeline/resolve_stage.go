package pipeline

import (
	"github.com/rs/zerolog"
)

// resolveStage maps records to endpoints and emits them in input order.
// It closes out when in is exhausted.
func (r *Runner) resolveStage(in <-chan ProjectRecord, out chan<- resolvedRecord, logger zerolog.Logger) {
	orderedMap(in, out, r.opts.ResolutionWorkers, r.opts.QueueCapacity, func(workerID int, rec ProjectRecord) resolvedRecord {
		endpoint, ok := r.resolver.Resolve(rec.URL)
		if !ok {
			logger.Debug().
				Int("worker_id", workerID).
				Str("url", rec.URL).
				Msg("URL does not name a GitHub repository")
		}
		return resolvedRecord{record: rec, endpoint: endpoint, ok: ok}
	})
}
