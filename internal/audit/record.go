// Package audit keeps an append-only trail of pipeline runs. Nothing reads
// the trail back to drive the pipeline.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Record summarises one pipeline run.
type Record struct {
	RunID       uuid.UUID     `json:"run_id"`
	JobID       string        `json:"job_id,omitempty"`
	Language    string        `json:"language"`
	ContentType string        `json:"content_type"`
	SizeBytes   int64         `json:"size_bytes"`
	Outcome     string        `json:"outcome"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

type Recorder interface {
	Record(ctx context.Context, r Record) error
}

// LogRecorder writes records to the structured log only.
type LogRecorder struct {
	Logger *slog.Logger
}

func (l LogRecorder) Record(_ context.Context, r Record) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("transcription run",
		"run_id", r.RunID,
		"job_id", r.JobID,
		"outcome", r.Outcome,
		"failed_stage", r.FailedStage,
		"duration_ms", r.Duration.Milliseconds(),
	)
	return nil
}
