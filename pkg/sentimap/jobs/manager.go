// Package jobs runs analyses in the background and tracks their progress
// and results in a store.Store.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cognicore/sentimap/pkg/sentimap"
	"github.com/cognicore/sentimap/pkg/sentimap/dataset"
	"github.com/cognicore/sentimap/pkg/sentimap/store"
	"github.com/cognicore/sentimap/pkg/sentimap/summary"
)

// Analyzer is the work a job performs.
type Analyzer interface {
	Prepare(ds *dataset.Dataset) error
	Analyze(ctx context.Context, ds *dataset.Dataset, progress sentimap.ProgressFunc) (*summary.Result, error)
}

// State is what a poller sees for a job id.
type State int

const (
	// StateUnknown covers ids that were never issued or have expired.
	StateUnknown State = iota
	StateRunning
	StateDone
	StateFailed
)

// Outcome is the polled state of a job.
type Outcome struct {
	State    State
	Progress int
	Result   json.RawMessage // set when State is StateDone
	Error    string          // set when State is StateFailed
}

// Manager validates submissions, starts one goroutine per job and answers
// progress and result queries.
type Manager struct {
	store     store.Store
	analyzer  Analyzer
	ids       *IDSource
	retention time.Duration
	interval  time.Duration
	wg        sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetention sets how long finished jobs are kept.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) {
		m.retention = d
	}
}

// WithSweepInterval sets how often expired jobs are purged.
func WithSweepInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.interval = d
	}
}

// NewManager creates a job manager.
func NewManager(st store.Store, analyzer Analyzer, opts ...Option) *Manager {
	m := &Manager{
		store:     st,
		analyzer:  analyzer,
		ids:       NewIDSource(),
		retention: time.Hour,
		interval:  time.Minute,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit validates ds synchronously and starts the analysis in the
// background. Rejected input returns an error wrapping
// internalerr.ErrInvalidInput and creates no job.
func (m *Manager) Submit(ctx context.Context, ds *dataset.Dataset) (string, error) {
	if err := m.analyzer.Prepare(ds); err != nil {
		return "", err
	}

	id := m.ids.Next()
	if err := m.store.CreateJob(ctx, id); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	slog.Info("[Jobs] job submitted", slog.String("job_id", id), slog.Int("rows", ds.Len()))

	m.wg.Add(1)
	go m.run(id, ds)
	return id, nil
}

// run owns all writes for job id. It is detached from the submitting
// request so the job outlives it.
func (m *Manager) run(id string, ds *dataset.Dataset) {
	defer m.wg.Done()
	ctx := context.Background()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			m.fail(ctx, id, fmt.Errorf("job panicked: %v", r))
		}
	}()

	last := -1
	result, err := m.analyzer.Analyze(ctx, ds, func(p int) {
		if p == last {
			return
		}
		last = p
		if err := m.store.SetProgress(ctx, id, p); err != nil {
			slog.Warn("[Jobs] progress update failed", slog.String("job_id", id), slog.Any("error", err))
		}
	})
	if err != nil {
		m.fail(ctx, id, err)
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		m.fail(ctx, id, fmt.Errorf("encode result: %w", err))
		return
	}
	if err := m.store.Complete(ctx, id, data); err != nil {
		slog.Error("[Jobs] storing result failed", slog.String("job_id", id), slog.Any("error", err))
		return
	}

	slog.Info("[Jobs] job finished",
		slog.String("job_id", id),
		slog.Duration("elapsed", time.Since(start)))
}

func (m *Manager) fail(ctx context.Context, id string, cause error) {
	slog.Error("[Jobs] job failed", slog.String("job_id", id), slog.Any("error", cause))
	if err := m.store.Fail(ctx, id, cause.Error()); err != nil {
		slog.Error("[Jobs] storing failure failed", slog.String("job_id", id), slog.Any("error", err))
	}
}

// Progress returns the job's percentage: 0 for unknown ids and
// store.ProgressFailed for failed jobs.
func (m *Manager) Progress(ctx context.Context, id string) (int, error) {
	job, found, err := m.store.GetJob(ctx, id)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return job.Progress, nil
}

// Outcome returns the polled state of a job.
func (m *Manager) Outcome(ctx context.Context, id string) (Outcome, error) {
	job, found, err := m.store.GetJob(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	if !found {
		return Outcome{State: StateUnknown}, nil
	}

	out := Outcome{Progress: job.Progress}
	switch job.Status {
	case store.StatusDone:
		out.State = StateDone
		out.Result = json.RawMessage(job.Result)
	case store.StatusFailed:
		out.State = StateFailed
		out.Error = job.Error
	default:
		out.State = StateRunning
	}
	return out, nil
}

// Wait blocks until every started job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Sweep purges jobs finished longer than the retention window ago.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	removed, err := m.store.PurgeBefore(ctx, time.Now().Add(-m.retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		slog.Debug("[Jobs] purged expired jobs", slog.Int("count", removed))
	}
	return removed, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context) {
	if m.interval <= 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("[Jobs] sweep failed", slog.Any("error", err))
			}
		}
	}
}
