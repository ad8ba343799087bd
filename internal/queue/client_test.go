package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/videoscribe/internal/audit"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func sampleRecord() audit.Record {
	return audit.Record{
		RunID:       uuid.New(),
		JobID:       "job-1",
		Language:    "en-US",
		ContentType: "video/mp4",
		SizeBytes:   6,
		Outcome:     audit.OutcomeCompleted,
		StartedAt:   time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Duration:    3 * time.Second,
	}
}

// TestRecordEnqueuesTask round-trips a record through the task payload.
func TestRecordEnqueuesTask(t *testing.T) {
	f := &fakeEnqueuer{}
	c := &Client{client: f}
	rec := sampleRecord()

	if err := c.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(f.tasks) != 1 || f.tasks[0].Type() != TypeAuditRecord {
		t.Fatalf("tasks = %v", f.tasks)
	}
	got, err := ParseAuditRecord(f.tasks[0])
	if err != nil {
		t.Fatalf("ParseAuditRecord() error = %v", err)
	}
	if got != rec {
		t.Fatalf("record = %+v, want %+v", got, rec)
	}
	if len(f.opts[0]) == 0 {
		t.Fatal("enqueue options missing")
	}
}

// TestRecordDuplicateIsNotAnError swallows task id conflicts.
func TestRecordDuplicateIsNotAnError(t *testing.T) {
	c := &Client{client: &fakeEnqueuer{err: asynq.ErrTaskIDConflict}}
	if err := c.Record(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("Record() error = %v, want nil", err)
	}
}

// TestRecordEnqueueFailure surfaces broker errors.
func TestRecordEnqueueFailure(t *testing.T) {
	down := errors.New("redis: connection refused")
	c := &Client{client: &fakeEnqueuer{err: down}}
	if err := c.Record(context.Background(), sampleRecord()); !errors.Is(err, down) {
		t.Fatalf("Record() error = %v, want %v", err, down)
	}
}
