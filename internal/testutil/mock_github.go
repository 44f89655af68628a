// Package testutil provides testing utilities for the repo-stars packages.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock GitHub endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RateLimit is the quota the mock reports from /rate_limit.
type RateLimit struct {
	Limit int
	Used  int
	Reset time.Time
}

// RequestRecord captures one request seen by the mock.
type RequestRecord struct {
	Path   string
	Header http.Header
	At     time.Time
}

// MockGitHub is a configurable mock GitHub API server for testing.
type MockGitHub struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	rateLimit       RateLimit
	rateLimitStatus int

	requests          []RequestRecord
	conditionalCount  int
	rateLimitRequests int
}

// NewMockGitHub creates a new mock GitHub server.
// By default /rate_limit reports a healthy 5000 request quota and unknown
// repositories answer 404 Not Found.
func NewMockGitHub() *MockGitHub {
	mock := &MockGitHub{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		rateLimit: RateLimit{
			Limit: 5000,
			Used:  0,
			Reset: time.Now().Add(time.Hour),
		},
		rateLimitStatus: http.StatusOK,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		if r.URL.Path == "/rate_limit" {
			mock.rateLimitRequests++
		} else {
			mock.requests = append(mock.requests, RequestRecord{
				Path:   r.URL.Path,
				Header: r.Header.Clone(),
				At:     time.Now(),
			})
			if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
				mock.conditionalCount++
			}
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		if r.URL.Path == "/rate_limit" {
			mock.rateLimitHandler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGitHub) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGitHub) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockGitHub) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockGitHub) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetRepo configures /repos/{owner}/{repo} to return the given star count.
func (m *MockGitHub) SetRepo(owner, repo string, stars int) {
	m.SetResponse(RepoPath(owner, repo), NewRepoResponse(stars))
}

// SetRateLimit configures what /rate_limit reports.
func (m *MockGitHub) SetRateLimit(rl RateLimit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimit = rl
}

// SetRateLimitStatus makes /rate_limit answer with the given status and an
// error body when it is not 200.
func (m *MockGitHub) SetRateLimitStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimitStatus = status
}

// GetRequestCount returns the number of non quota requests made to the server.
func (m *MockGitHub) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// GetRateLimitRequestCount returns the number of /rate_limit queries.
func (m *MockGitHub) GetRateLimitRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rateLimitRequests
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockGitHub) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// Requests returns a copy of all non quota requests in arrival order.
func (m *MockGitHub) Requests() []RequestRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RequestRecord, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockGitHub) rateLimitHandler(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	rl := m.rateLimit
	status := m.rateLimitStatus
	m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
		w.Write([]byte(`{"message": "rate limit endpoint unavailable"}`))
		return
	}

	core := map[string]int64{
		"limit":     int64(rl.Limit),
		"used":      int64(rl.Used),
		"remaining": int64(rl.Limit - rl.Used),
		"reset":     rl.Reset.Unix(),
	}
	json.NewEncoder(w).Encode(map[string]any{
		"resources": map[string]any{"core": core},
		"rate":      core,
	})
}

// defaultHandler answers like GitHub does for a repository it does not know.
func (m *MockGitHub) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"message": "Not Found", "documentation_url": "https://docs.github.com/rest"}`))
}

// RepoPath returns the API path of a repository.
func RepoPath(owner, repo string) string {
	return fmt.Sprintf("/repos/%s/%s", owner, repo)
}

// NewRepoResponse creates a standard 200 OK repository response.
func NewRepoResponse(stars int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"id": 1, "full_name": "acme/widget", "stargazers_count": %d}`, stars),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewErrorResponse creates an error response carrying a GitHub style message.
func NewErrorResponse(status int, message string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"message": %q}`, message),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitedResponse creates the 403 GitHub sends once the quota is spent.
func NewRateLimitedResponse(reset time.Time) MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       `{"message": "API rate limit exceeded"}`,
		Headers: map[string]string{
			"Content-Type":          "application/json; charset=utf-8",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     fmt.Sprintf("%d", reset.Unix()),
		},
	}
}

// NewETagHandler creates a handler that answers 304 when the request
// revalidates the given ETag, and a full repository body otherwise.
func NewETagHandler(etag string, stars int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("ETag", etag)

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"stargazers_count": %d}`, stars)
	}
}
