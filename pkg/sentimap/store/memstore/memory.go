package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cognicore/sentimap/pkg/sentimap/internalerr"
	"github.com/cognicore/sentimap/pkg/sentimap/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]store.Job
	now  func() time.Time
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		jobs: make(map[string]store.Job),
		now:  time.Now,
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// CreateJob implements store.Store.
func (s *Store) CreateJob(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; ok {
		return fmt.Errorf("%w: job %s already exists", internalerr.ErrInvalidInput, id)
	}
	now := s.now()
	s.jobs[id] = store.Job{
		ID:        id,
		Status:    store.StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// SetProgress implements store.Store.
func (s *Store) SetProgress(ctx context.Context, id string, progress int) error {
	return s.update(id, func(j *store.Job) {
		if j.Finished() {
			return
		}
		j.Progress = store.ClampProgress(progress)
	})
}

// Complete implements store.Store.
func (s *Store) Complete(ctx context.Context, id string, result []byte) error {
	return s.update(id, func(j *store.Job) {
		j.Status = store.StatusDone
		j.Progress = store.ProgressDone
		j.Result = append([]byte(nil), result...)
		j.Error = ""
	})
}

// Fail implements store.Store.
func (s *Store) Fail(ctx context.Context, id string, message string) error {
	return s.update(id, func(j *store.Job) {
		j.Status = store.StatusFailed
		j.Progress = store.ProgressFailed
		j.Result = nil
		j.Error = message
	})
}

func (s *Store) update(id string, fn func(*store.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, internalerr.ErrNotFound)
	}
	fn(&j)
	j.UpdatedAt = s.now()
	s.jobs[id] = j
	return nil
}

// GetJob implements store.Store.
func (s *Store) GetJob(ctx context.Context, id string) (store.Job, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return store.Job{}, false, nil
	}
	j.Result = append([]byte(nil), j.Result...)
	return j, true, nil
}

// PurgeBefore implements store.Store.
func (s *Store) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, j := range s.jobs {
		if j.Finished() && j.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
