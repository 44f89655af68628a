package cache

import (
	"net/http"
	"time"
)

// Entry represents a cached GitHub response.
type Entry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag for conditional requests (If-None-Match)
	ETag string `json:"etag"`

	// LastModified from the Last-Modified header, used when no ETag is present
	LastModified time.Time `json:"last_modified"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Expires is when Redis may drop the entry
	Expires time.Time `json:"expires"`

	// CachedAt is when we cached this response
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true if the cache entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Validator returns the header pair to send on revalidation, or empty
// strings when the entry carries neither an ETag nor a Last-Modified time.
func (e *Entry) Validator() (header, value string) {
	if e.ETag != "" {
		return "If-None-Match", e.ETag
	}
	if !e.LastModified.IsZero() {
		return "If-Modified-Since", e.LastModified.UTC().Format(http.TimeFormat)
	}
	return "", ""
}
