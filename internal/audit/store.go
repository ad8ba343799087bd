package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists records to the transcription_runs table.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Record(ctx context.Context, r Record) error {
	var jobID, failedStage, errMsg *string
	if r.JobID != "" {
		jobID = &r.JobID
	}
	if r.FailedStage != "" {
		failedStage = &r.FailedStage
	}
	if r.Error != "" {
		errMsg = &r.Error
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO transcription_runs (run_id, job_id, language, content_type, size_bytes, outcome, failed_stage, error, started_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (run_id) DO NOTHING`,
		r.RunID, jobID, r.Language, r.ContentType, r.SizeBytes, r.Outcome, failedStage, errMsg,
		r.StartedAt, r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert transcription run: %w", err)
	}
	return nil
}
