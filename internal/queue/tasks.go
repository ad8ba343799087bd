package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/videoscribe/internal/audit"
)

const (
	TypeAuditRecord = "audit:record"

	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// NewAuditRecordTask wraps a run record for the worker.
func NewAuditRecordTask(r audit.Record) (*asynq.Task, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(TypeAuditRecord, data), nil
}

func ParseAuditRecord(t *asynq.Task) (audit.Record, error) {
	var r audit.Record
	if err := json.Unmarshal(t.Payload(), &r); err != nil {
		return audit.Record{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return r, nil
}
