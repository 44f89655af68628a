package cache

import (
	"strings"
)

// keyPrefix namespaces every key this package writes.
const keyPrefix = "repo-stars"

// Key identifies a cached GitHub response.
type Key struct {
	// Endpoint is the absolute API URL (e.g. "https://api.github.com/repos/acme/widget")
	Endpoint string

	// Authenticated separates responses fetched with a token from anonymous
	// ones, since private repositories are only visible to the former.
	Authenticated bool
}

// String generates a deterministic cache key string.
// Format: repo-stars:<scheme-less endpoint>:<anon|auth>
//
// Example:
//
//	repo-stars:api.github.com/repos/acme/widget:auth
func (k Key) String() string {
	endpoint := k.Endpoint
	if i := strings.Index(endpoint, "://"); i >= 0 {
		endpoint = endpoint[i+3:]
	}
	endpoint = strings.ToLower(strings.Trim(endpoint, "/"))

	scope := "anon"
	if k.Authenticated {
		scope = "auth"
	}

	return strings.Join([]string{keyPrefix, endpoint, scope}, ":")
}
