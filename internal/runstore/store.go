// Package runstore persists the history of graph runs executed by the
// service.
package runstore

import (
	"context"
	"errors"
	"time"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrNotFound is returned when a run is not found.
var ErrNotFound = errors.New("run not found")

// Run is one row of run history.
type Run struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DurationMS *int64     `json:"duration_ms,omitempty"`
	Error      string     `json:"error,omitempty"`
	// Outputs is the redacted end-node output, encoded as JSON.
	Outputs []byte `json:"-"`
}

// Store records runs.
type Store interface {
	Create(ctx context.Context, id string, startedAt time.Time) error
	Finish(ctx context.Context, id, status string, finishedAt time.Time, errMsg string, outputs []byte) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit, offset int) ([]*Run, int, error)
	Close() error
}
