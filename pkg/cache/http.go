package cache

import (
	"fmt"
	"net/http"
	"time"
)

// DefaultRetention is how long a body stays in Redis waiting for a 304.
const DefaultRetention = 24 * time.Hour

// NewEntry builds a cache entry from a completed response.
// Only 200 responses are cacheable; anything else returns an error.
func NewEntry(statusCode int, header http.Header, body []byte, retention time.Duration) (*Entry, error) {
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d is not cacheable", statusCode)
	}
	if retention <= 0 {
		retention = DefaultRetention
	}

	now := time.Now()
	entry := &Entry{
		Data:       body,
		ETag:       header.Get("ETag"),
		StatusCode: statusCode,
		Expires:    now.Add(retention),
		CachedAt:   now,
	}

	if lastModStr := header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	return entry, nil
}

// ShouldMakeConditionalRequest determines if we should add conditional
// request headers (If-None-Match or If-Modified-Since) based on the cache entry.
func ShouldMakeConditionalRequest(entry *Entry) bool {
	if entry == nil {
		return false
	}
	header, _ := entry.Validator()
	return header != ""
}

// AddConditionalHeaders adds If-None-Match (ETag) or If-Modified-Since headers
// to the request if the cache entry supports conditional requests.
func AddConditionalHeaders(req *http.Request, entry *Entry) {
	if entry == nil || req == nil {
		return
	}
	if header, value := entry.Validator(); header != "" {
		req.Header.Set(header, value)
	}
}
