// Package valkeystore keeps job state in Valkey hashes so several server
// instances can share progress. Finished jobs expire through key TTLs.
package valkeystore

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/cognicore/sentimap/pkg/sentimap/internalerr"
	"github.com/cognicore/sentimap/pkg/sentimap/store"
)

const (
	fieldStatus   = "status"
	fieldProgress = "progress"
	fieldResult   = "result"
	fieldError    = "error"
	fieldCreated  = "created_at"
	fieldUpdated  = "updated_at"
)

// Options configure the connection.
type Options struct {
	Address   string
	Password  string
	TLS       bool
	KeyPrefix string
	// TTL bounds how long finished jobs are kept. Running jobs get
	// RunningTTL so a crashed worker does not leak keys.
	TTL        time.Duration
	RunningTTL time.Duration
}

type valkeyStore struct {
	client     valkey.Client
	prefix     string
	ttl        time.Duration
	runningTTL time.Duration
}

// Open connects to Valkey and verifies the connection with PING.
func Open(ctx context.Context, opts Options) (store.Store, error) {
	clientOpts := valkey.ClientOption{
		InitAddress:      []string{opts.Address},
		Password:         opts.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if opts.TLS {
		clientOpts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: connect valkey: %v", internalerr.ErrStoreUnavailable, err)
	}
	return newStore(ctx, client, opts)
}

func newStore(ctx context.Context, client valkey.Client, opts Options) (store.Store, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping valkey: %v", internalerr.ErrStoreUnavailable, err)
	}
	slog.Info("[ValkeyStore] Successfully connected to valkey")

	s := &valkeyStore{
		client:     client,
		prefix:     opts.KeyPrefix,
		ttl:        opts.TTL,
		runningTTL: opts.RunningTTL,
	}
	if s.prefix == "" {
		s.prefix = "sentimap:job:"
	}
	if s.ttl <= 0 {
		s.ttl = time.Hour
	}
	if s.runningTTL <= 0 {
		s.runningTTL = 24 * time.Hour
	}
	return s, nil
}

func (s *valkeyStore) key(id string) string {
	return s.prefix + id
}

// Close implements store.Store.
func (s *valkeyStore) Close() error {
	s.client.Close()
	return nil
}

func now() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// CreateJob implements store.Store.
func (s *valkeyStore) CreateJob(ctx context.Context, id string) error {
	key := s.key(id)
	ts := now()

	created, err := s.client.Do(ctx, s.client.B().Hsetnx().Key(key).Field(fieldStatus).Value(string(store.StatusRunning)).Build()).AsBool()
	if err != nil {
		return fmt.Errorf("create job %s: %w", id, err)
	}
	if !created {
		return fmt.Errorf("%w: job %s already exists", internalerr.ErrInvalidInput, id)
	}

	cmds := valkey.Commands{
		s.client.B().Hset().Key(key).FieldValue().
			FieldValue(fieldProgress, "0").
			FieldValue(fieldCreated, ts).
			FieldValue(fieldUpdated, ts).
			Build(),
		s.client.B().Expire().Key(key).Seconds(int64(s.runningTTL / time.Second)).Build(),
	}
	return s.doMulti(ctx, id, cmds)
}

// SetProgress implements store.Store.
func (s *valkeyStore) SetProgress(ctx context.Context, id string, progress int) error {
	job, found, err := s.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("job %s: %w", id, internalerr.ErrNotFound)
	}
	if job.Finished() {
		return nil
	}
	cmd := s.client.B().Hset().Key(s.key(id)).FieldValue().
		FieldValue(fieldProgress, strconv.Itoa(store.ClampProgress(progress))).
		FieldValue(fieldUpdated, now()).
		Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("set progress %s: %w", id, err)
	}
	return nil
}

// Complete implements store.Store.
func (s *valkeyStore) Complete(ctx context.Context, id string, result []byte) error {
	return s.finish(ctx, id, store.StatusDone, store.ProgressDone, string(result), "")
}

// Fail implements store.Store.
func (s *valkeyStore) Fail(ctx context.Context, id string, message string) error {
	return s.finish(ctx, id, store.StatusFailed, store.ProgressFailed, "", message)
}

func (s *valkeyStore) finish(ctx context.Context, id string, status store.Status, progress int, result, message string) error {
	key := s.key(id)
	exists, err := s.client.Do(ctx, s.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("finish job %s: %w", id, err)
	}
	if exists == 0 {
		return fmt.Errorf("job %s: %w", id, internalerr.ErrNotFound)
	}

	cmds := valkey.Commands{
		s.client.B().Hset().Key(key).FieldValue().
			FieldValue(fieldStatus, string(status)).
			FieldValue(fieldProgress, strconv.Itoa(progress)).
			FieldValue(fieldResult, result).
			FieldValue(fieldError, message).
			FieldValue(fieldUpdated, now()).
			Build(),
		s.client.B().Expire().Key(key).Seconds(int64(s.ttl / time.Second)).Build(),
	}
	return s.doMulti(ctx, id, cmds)
}

func (s *valkeyStore) doMulti(ctx context.Context, id string, cmds valkey.Commands) error {
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			slog.Warn("[ValkeyStore] command failed",
				slog.String("job_id", id),
				slog.String("error", err.Error()))
			return fmt.Errorf("job %s: %w", id, err)
		}
	}
	return nil
}

// GetJob implements store.Store.
func (s *valkeyStore) GetJob(ctx context.Context, id string) (store.Job, bool, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(s.key(id)).Build()).AsStrMap()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return store.Job{}, false, nil
		}
		return store.Job{}, false, fmt.Errorf("get job %s: %w", id, err)
	}
	if len(fields) == 0 {
		return store.Job{}, false, nil
	}

	job := store.Job{
		ID:     id,
		Status: store.Status(fields[fieldStatus]),
		Error:  fields[fieldError],
	}
	job.Progress, _ = strconv.Atoi(fields[fieldProgress])
	if r := fields[fieldResult]; r != "" {
		job.Result = []byte(r)
	}
	if ns, err := strconv.ParseInt(fields[fieldCreated], 10, 64); err == nil {
		job.CreatedAt = time.Unix(0, ns)
	}
	if ns, err := strconv.ParseInt(fields[fieldUpdated], 10, 64); err == nil {
		job.UpdatedAt = time.Unix(0, ns)
	}
	return job, true, nil
}

// PurgeBefore implements store.Store. Key expiry already removes finished
// jobs, so this only deletes those whose TTL outlives cutoff.
func (s *valkeyStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	var cursor uint64
	for {
		entry, err := s.client.Do(ctx, s.client.B().Scan().Cursor(cursor).Match(s.prefix+"*").Count(100).Build()).AsScanEntry()
		if err != nil {
			return removed, fmt.Errorf("purge jobs: %w", err)
		}
		for _, key := range entry.Elements {
			id := key[len(s.prefix):]
			job, found, err := s.GetJob(ctx, id)
			if err != nil {
				return removed, err
			}
			if !found || !job.Finished() || !job.UpdatedAt.Before(cutoff) {
				continue
			}
			if err := s.client.Do(ctx, s.client.B().Del().Key(key).Build()).Error(); err != nil {
				return removed, fmt.Errorf("purge job %s: %w", id, err)
			}
			removed++
		}
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	return removed, nil
}
