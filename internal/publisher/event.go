// Package publisher defines the run notification sent after each source finishes.
package publisher

import (
	"context"
	"time"
)

// RunEvent describes the outcome of one source within a run.
type RunEvent struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	Count      int       `json:"count"`
	Outputs    []string  `json:"outputs"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher delivers run events and returns the broker message ID.
type Publisher interface {
	Publish(ctx context.Context, event RunEvent) (string, error)
}
