// Package storetest runs the same behavioral checks against every
// store.Store implementation.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cognicore/sentimap/pkg/sentimap/internalerr"
	"github.com/cognicore/sentimap/pkg/sentimap/store"
)

// Run exercises st. newID must return a fresh job id on every call.
func Run(t *testing.T, st store.Store, newID func() string) {
	t.Helper()
	ctx := context.Background()

	t.Run("lifecycle done", func(t *testing.T) {
		id := newID()
		if err := st.CreateJob(ctx, id); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}

		job := mustGet(t, st, id)
		if job.Status != store.StatusRunning || job.Progress != 0 {
			t.Errorf("new job = %+v", job)
		}

		if err := st.SetProgress(ctx, id, 42); err != nil {
			t.Fatalf("SetProgress: %v", err)
		}
		if job := mustGet(t, st, id); job.Progress != 42 {
			t.Errorf("progress = %d, want 42", job.Progress)
		}

		if err := st.SetProgress(ctx, id, 150); err != nil {
			t.Fatalf("SetProgress: %v", err)
		}
		if job := mustGet(t, st, id); job.Progress != 99 {
			t.Errorf("running progress should stay below 100, got %d", job.Progress)
		}

		result := []byte(`{"feature_summary":[]}`)
		if err := st.Complete(ctx, id, result); err != nil {
			t.Fatalf("Complete: %v", err)
		}
		job = mustGet(t, st, id)
		if job.Status != store.StatusDone || job.Progress != store.ProgressDone {
			t.Errorf("completed job = %+v", job)
		}
		if string(job.Result) != string(result) {
			t.Errorf("result = %s, want %s", job.Result, result)
		}

		if err := st.SetProgress(ctx, id, 10); err != nil {
			t.Fatalf("SetProgress after completion: %v", err)
		}
		if job := mustGet(t, st, id); job.Progress != store.ProgressDone {
			t.Errorf("finished job progress changed to %d", job.Progress)
		}
	})

	t.Run("lifecycle failed", func(t *testing.T) {
		id := newID()
		if err := st.CreateJob(ctx, id); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
		if err := st.Fail(ctx, id, "boom"); err != nil {
			t.Fatalf("Fail: %v", err)
		}
		job := mustGet(t, st, id)
		if job.Status != store.StatusFailed || job.Progress != store.ProgressFailed || job.Error != "boom" {
			t.Errorf("failed job = %+v", job)
		}
		if len(job.Result) != 0 {
			t.Errorf("failed job should have no result, got %s", job.Result)
		}
	})

	t.Run("unknown job", func(t *testing.T) {
		id := newID()
		if _, found, err := st.GetJob(ctx, id); err != nil || found {
			t.Errorf("GetJob(unknown) = found %v, err %v", found, err)
		}
		if err := st.SetProgress(ctx, id, 5); !errors.Is(err, internalerr.ErrNotFound) {
			t.Errorf("SetProgress(unknown) = %v, want ErrNotFound", err)
		}
	})

	t.Run("purge", func(t *testing.T) {
		running := newID()
		finished := newID()
		for _, id := range []string{running, finished} {
			if err := st.CreateJob(ctx, id); err != nil {
				t.Fatalf("CreateJob: %v", err)
			}
		}
		if err := st.Complete(ctx, finished, []byte("{}")); err != nil {
			t.Fatalf("Complete: %v", err)
		}

		if _, err := st.PurgeBefore(ctx, time.Now().Add(-time.Hour)); err != nil {
			t.Fatalf("PurgeBefore: %v", err)
		}
		if _, found, _ := st.GetJob(ctx, finished); !found {
			t.Error("recent job should survive an old cutoff")
		}

		if _, err := st.PurgeBefore(ctx, time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("PurgeBefore: %v", err)
		}
		if _, found, _ := st.GetJob(ctx, finished); found {
			t.Error("finished job should be purged")
		}
		if _, found, _ := st.GetJob(ctx, running); !found {
			t.Error("running job should never be purged")
		}
	})
}

func mustGet(t *testing.T, st store.Store, id string) store.Job {
	t.Helper()
	job, found, err := st.GetJob(context.Background(), id)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if !found {
		t.Fatalf("job %s not found", id)
	}
	return job
}
