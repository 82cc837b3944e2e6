package store

import (
	"context"
	"time"
)

// Store persists analysis job state: progress, the finished result or the
// failure message.
type Store interface {
	Close() error

	// CreateJob registers a running job with progress 0.
	CreateJob(ctx context.Context, id string) error
	// SetProgress records a percentage for a running job. Finished jobs
	// keep their final progress.
	SetProgress(ctx context.Context, id string, progress int) error
	// Complete stores the encoded result and sets progress to 100.
	Complete(ctx context.Context, id string, result []byte) error
	// Fail stores the error message and sets progress to ProgressFailed.
	Fail(ctx context.Context, id string, message string) error

	GetJob(ctx context.Context, id string) (Job, bool, error)

	// PurgeBefore deletes finished jobs last updated before cutoff and
	// returns how many were removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Progress bounds.
const (
	ProgressFailed = -1
	ProgressDone   = 100
)

// Job is a stored job record.
type Job struct {
	ID        string
	Status    Status
	Progress  int
	Result    []byte // JSON result, set when Status is StatusDone
	Error     string // set when Status is StatusFailed
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Finished reports whether the job has completed or failed.
func (j Job) Finished() bool {
	return j.Status == StatusDone || j.Status == StatusFailed
}

// ClampProgress limits p to the running range [0, 99]; 100 is reserved for
// Complete.
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p >= ProgressDone {
		return ProgressDone - 1
	}
	return p
}
