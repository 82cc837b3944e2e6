package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/sentimap/pkg/sentimap/internalerr"
	"github.com/cognicore/sentimap/pkg/sentimap/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", internalerr.ErrStoreUnavailable, path, err)
	}
	// One writer at a time; job updates are small and frequent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrStoreUnavailable, pragma, err)
		}
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("[SQLiteStore] opened job database", slog.String("path", path))
	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	progress INTEGER NOT NULL DEFAULT 0,
	result BLOB,
	error TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status_updated ON jobs(status, updated_at);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func nowNanos() int64 {
	return time.Now().UnixNano()
}

// CreateJob implements store.Store.
func (s *sqliteStore) CreateJob(ctx context.Context, id string) error {
	now := nowNanos()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, status, progress, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)
	`, id, string(store.StatusRunning), now, now)
	if err != nil {
		return fmt.Errorf("create job %s: %w", id, err)
	}
	return nil
}

// SetProgress implements store.Store.
func (s *sqliteStore) SetProgress(ctx context.Context, id string, progress int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET
			progress = CASE WHEN status = ? THEN ? ELSE progress END,
			updated_at = ?
		WHERE id = ?
	`, string(store.StatusRunning), store.ClampProgress(progress), nowNanos(), id)
	if err != nil {
		return fmt.Errorf("set progress %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Complete implements store.Store.
func (s *sqliteStore) Complete(ctx context.Context, id string, result []byte) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, progress = ?, result = ?, error = '', updated_at = ?
		WHERE id = ?
	`, string(store.StatusDone), store.ProgressDone, result, nowNanos(), id)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Fail implements store.Store.
func (s *sqliteStore) Fail(ctx context.Context, id string, message string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, progress = ?, result = NULL, error = ?, updated_at = ?
		WHERE id = ?
	`, string(store.StatusFailed), store.ProgressFailed, message, nowNanos(), id)
	if err != nil {
		return fmt.Errorf("fail job %s: %w", id, err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

// GetJob implements store.Store.
func (s *sqliteStore) GetJob(ctx context.Context, id string) (store.Job, bool, error) {
	var (
		job              store.Job
		status           string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, status, progress, result, error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id).Scan(&job.ID, &status, &job.Progress, &job.Result, &job.Error, &created, &updated)
	if err == sql.ErrNoRows {
		return store.Job{}, false, nil
	}
	if err != nil {
		return store.Job{}, false, fmt.Errorf("get job %s: %w", id, err)
	}
	job.Status = store.Status(status)
	job.CreatedAt = time.Unix(0, created)
	job.UpdatedAt = time.Unix(0, updated)
	return job, true, nil
}

// PurgeBefore implements store.Store.
func (s *sqliteStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM jobs WHERE status IN (?, ?) AND updated_at < ?
	`, string(store.StatusDone), string(store.StatusFailed), cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
