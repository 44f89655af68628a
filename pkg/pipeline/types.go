package pipeline

import (
	"fmt"
)

// StatsKind tags the Stats variant.
type StatsKind string

const (
	// KindSuccess carries a star count.
	KindSuccess StatsKind = "success"

	// KindFailure carries an error message.
	KindFailure StatsKind = "failure"

	// KindUnresolved marks a URL that maps to no API endpoint.
	KindUnresolved StatsKind = "unresolved"
)

// Stats is the result attached to a record by the fetch stage.
// Build it with Success, Failure or Unresolved.
type Stats struct {
	Kind    StatsKind `json:"kind"`
	Stars   int       `json:"stars,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Success returns a Stats holding a star count.
func Success(stars int) Stats {
	return Stats{Kind: KindSuccess, Stars: stars}
}

// Failure returns a Stats holding an error message.
func Failure(message string) Stats {
	return Stats{Kind: KindFailure, Message: message}
}

// Unresolved returns the Stats for a URL with no API endpoint.
func Unresolved() Stats {
	return Stats{Kind: KindUnresolved}
}

// Valid reports whether exactly one variant is populated.
func (s Stats) Valid() bool {
	switch s.Kind {
	case KindSuccess:
		return s.Message == ""
	case KindFailure:
		return s.Stars == 0 && s.Message != ""
	case KindUnresolved:
		return s.Stars == 0 && s.Message == ""
	default:
		return false
	}
}

func (s Stats) String() string {
	switch s.Kind {
	case KindSuccess:
		return fmt.Sprintf("%d stars", s.Stars)
	case KindFailure:
		return "failure: " + s.Message
	case KindUnresolved:
		return "unresolved"
	default:
		return "invalid stats"
	}
}

// ProjectRecord is one project travelling through the pipeline.
// Name and Category are carried along for reporting and never read by the
// stages.
type ProjectRecord struct {
	URL      string `json:"url" yaml:"url"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Stats    *Stats `json:"stats,omitempty" yaml:"-"`
}

// resolvedRecord is a record paired with its endpoint.
// ok=false means the URL could not be resolved.
type resolvedRecord struct {
	record   ProjectRecord
	endpoint string
	ok       bool
}
