package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("run not found")

// ErrLimitReached is returned by CreateWithinLimit when the recipient is at the limit
var ErrLimitReached = errors.New("run limit reached")

type RunStatus string

const (
	StatusPending   RunStatus = "PENDING"
	StatusRunning   RunStatus = "RUNNING"
	StatusCompleted RunStatus = "COMPLETED"
	StatusFailed    RunStatus = "FAILED"
)

// Run is one research crew execution and its outputs
type Run struct {
	ID          string    `json:"id"`
	Topic       string    `json:"topic"`
	Recipient   string    `json:"recipient"`
	Format      string    `json:"format"`
	NumResults  int       `json:"num_results"`
	Status      RunStatus `json:"status"`
	Progress    int       `json:"progress"`
	Stage       string    `json:"stage"`
	Message     string    `json:"message"`
	Research    string    `json:"research,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	EmailStatus string    `json:"email_status,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Done reports whether the run reached a terminal status
func (r *Run) Done() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

type Store interface {
	// Create assigns the run an ID and persists it as PENDING
	Create(ctx context.Context, run *Run) error
	// CreateWithinLimit counts the recipient's runs created at or after since
	// and creates run only while that count is below limit, as one atomic
	// step. It returns the count seen. A limit of 0 or less disables the check.
	CreateWithinLimit(ctx context.Context, run *Run, since time.Time, limit int) (int, error)
	Get(ctx context.Context, id string) (*Run, error)
	// UpdateProgress moves the run to RUNNING with the given milestone
	UpdateProgress(ctx context.Context, id string, percent int, stage, message string) error
	Complete(ctx context.Context, id, research, summary, emailStatus string) error
	Fail(ctx context.Context, id, errMsg string) error
	// CountSince counts runs for a recipient created at or after since
	CountSince(ctx context.Context, recipient string, since time.Time) (int, error)

	// General
	Close()
}
