// Package history keeps an audit trail of search requests. It records who
// searched, what kind of search it was and how it ended. Results and API
// tokens are never stored.
package history

import (
	"time"

	"github.com/kishore1288/nodenewsearch/internal/apierr"
)

// Outcome is how a search request ended.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomeError    Outcome = "error"
)

// OutcomeOf maps a terminal error to an Outcome. A nil error is a completed
// search.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeComplete
	}
	if k := apierr.KindOf(err); k != "" {
		return Outcome(k)
	}
	return OutcomeError
}

// Entry is one recorded search request.
type Entry struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	Username     string    `json:"username,omitempty"`
	TokenPresent bool      `json:"token_present"`
	FolderID     *int64    `json:"folder_id,omitempty"`
	SearchType   string    `json:"search_type"`
	Criteria     string    `json:"criteria"`
	Outcome      Outcome   `json:"outcome"`
	Error        string    `json:"error,omitempty"`
	Results      int       `json:"results"`
	Degraded     int       `json:"degraded"`
	DurationMS   int64     `json:"duration_ms"`
}
