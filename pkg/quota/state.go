// Package quota tracks the GitHub request quota shared by all fetch workers.
// It mirrors the provider's /rate_limit view (limit, used, reset time),
// counts requests locally between refreshes, and tells workers when to wait
// for the reset.
package quota

import (
	"time"
)

// Fallback values installed when the quota endpoint cannot be read.
const (
	// DefaultLimit is GitHub's unauthenticated hourly quota.
	DefaultLimit = 60

	// DefaultJitterPadding is added to the reset time to absorb clock skew
	// between this host and the provider.
	DefaultJitterPadding = 3 * time.Second

	// StatusPath is the quota status endpoint relative to the API base.
	StatusPath = "/rate_limit"
)

// State is a snapshot of the request quota.
type State struct {
	// Limit is the number of requests allowed in the current window.
	Limit int `json:"limit"`

	// Used is the number of requests spent in the current window.
	// Only grows between refreshes.
	Used int `json:"used"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`
}

// DefaultState is the conservative state used when a refresh fails:
// a small limit, nothing used, and a reset that has already happened.
func DefaultState(now time.Time) State {
	return State{
		Limit:   DefaultLimit,
		Used:    0,
		ResetAt: now,
	}
}

// ResetAtEpochMillis returns the reset time in Unix milliseconds.
func (s State) ResetAtEpochMillis() int64 {
	return s.ResetAt.UnixMilli()
}

// Exhausted returns true once every request in the window has been spent.
func (s State) Exhausted() bool {
	return s.Used >= s.Limit
}

// Remaining returns the number of requests left, never negative.
func (s State) Remaining() int {
	if s.Used >= s.Limit {
		return 0
	}
	return s.Limit - s.Used
}

// TimeUntilReset returns the duration from now until the padded reset.
// Returns 0 if the padded reset time has already passed.
func (s State) TimeUntilReset(now time.Time, padding time.Duration) time.Duration {
	d := s.ResetAt.Add(padding).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
