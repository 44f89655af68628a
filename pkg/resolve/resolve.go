// Package resolve maps GitHub repository URLs to REST API endpoints.
package resolve

import (
	"regexp"
	"strings"

	"github.com/Sternrassler/repo-stars/pkg/client"
)

// repoURL matches https://github.com/<owner>/<repo> with exactly two path
// segments after the host.
var repoURL = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)$`)

// Resolver builds endpoints against a configurable API base.
// The zero value targets the public GitHub API.
type Resolver struct {
	APIBaseURL string
}

// New returns a resolver for the given API base.
func New(apiBaseURL string) Resolver {
	return Resolver{APIBaseURL: apiBaseURL}
}

// Resolve returns the repository endpoint for a project URL, or ok=false
// when the URL is empty, malformed, or not a github.com repository.
func (r Resolver) Resolve(url string) (endpoint string, ok bool) {
	owner, repo, ok := split(url)
	if !ok {
		return "", false
	}

	base := r.APIBaseURL
	if base == "" {
		base = client.DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/repos/" + owner + "/" + repo, true
}

// Resolve resolves against the public GitHub API.
func Resolve(url string) (string, bool) {
	return Resolver{}.Resolve(url)
}

// split extracts owner and repository from a project URL.
func split(url string) (owner, repo string, ok bool) {
	url = strings.TrimSpace(url)
	url = strings.TrimSuffix(url, "/")
	if url == "" {
		return "", "", false
	}

	m := repoURL.FindStringSubmatch(url)
	if m == nil {
		return "", "", false
	}

	owner, repo = m[1], strings.TrimSuffix(m[2], ".git")
	if isDots(owner) || isDots(repo) {
		return "", "", false
	}
	return owner, repo, true
}

func isDots(s string) bool {
	return s == "" || strings.Trim(s, ".") == ""
}
