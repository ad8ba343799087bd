package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/videoscribe/internal/audit"
	"github.com/nikhilbhutani/videoscribe/internal/queue"
)

// AuditWorker persists run records produced by the API.
type AuditWorker struct {
	store audit.Recorder
}

func NewAuditWorker(store audit.Recorder) *AuditWorker {
	return &AuditWorker{store: store}
}

func (w *AuditWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	rec, err := queue.ParseAuditRecord(t)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if err := w.store.Record(ctx, rec); err != nil {
		return fmt.Errorf("store run %s: %w", rec.RunID, err)
	}

	slog.Info("run recorded", "run_id", rec.RunID, "job_id", rec.JobID, "outcome", rec.Outcome)
	return nil
}
