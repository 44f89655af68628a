package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/repo-stars/pkg/client"
)

// ErrInvalidOptions is wrapped by every Options validation error.
var ErrInvalidOptions = errors.New("invalid pipeline options")

// Options configures one pipeline invocation.
type Options struct {
	// Credential is sent as a bearer token when non-empty.
	Credential string

	// EnforceQuota makes fetch workers sleep until the quota resets once it
	// is spent. Without it requests are issued regardless of quota state.
	EnforceQuota bool

	// Verbose logs every enriched record at info level.
	Verbose bool

	// ResolutionWorkers is the resolution stage pool size.
	ResolutionWorkers int

	// FetchWorkers is the fetch stage pool size.
	FetchWorkers int

	// QueueCapacity bounds each inter-stage channel. 0 means unbuffered.
	QueueCapacity int

	// APIBaseURL is the GitHub API root (default: client.DefaultBaseURL).
	APIBaseURL string

	// RequestsPerSecond paces fetches on top of the quota check. 0 disables pacing.
	RequestsPerSecond float64

	// RequestTimeout bounds a single GET (default: client.DefaultTimeout).
	RequestTimeout time.Duration
}

// DefaultOptions returns options suitable for the public GitHub API.
func DefaultOptions() Options {
	return Options{
		EnforceQuota:      true,
		ResolutionWorkers: 4,
		FetchWorkers:      8,
		QueueCapacity:     64,
		APIBaseURL:        client.DefaultBaseURL,
		RequestTimeout:    client.DefaultTimeout,
	}
}

// Validate checks the options before any stage starts.
func (o Options) Validate() error {
	if o.ResolutionWorkers < 1 {
		return fmt.Errorf("%w: resolution workers must be >= 1 (got %d)", ErrInvalidOptions, o.ResolutionWorkers)
	}
	if o.FetchWorkers < 1 {
		return fmt.Errorf("%w: fetch workers must be >= 1 (got %d)", ErrInvalidOptions, o.FetchWorkers)
	}
	if o.QueueCapacity < 0 {
		return fmt.Errorf("%w: queue capacity must be >= 0 (got %d)", ErrInvalidOptions, o.QueueCapacity)
	}
	if o.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: requests per second must be >= 0 (got %g)", ErrInvalidOptions, o.RequestsPerSecond)
	}
	if o.RequestTimeout < 0 {
		return fmt.Errorf("%w: request timeout must be >= 0 (got %v)", ErrInvalidOptions, o.RequestTimeout)
	}
	return nil
}
