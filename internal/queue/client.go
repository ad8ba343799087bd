package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/videoscribe/internal/audit"
	"github.com/nikhilbhutani/videoscribe/internal/config"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client hands run records to the worker through Redis. It satisfies
// audit.Recorder.
type Client struct {
	client enqueuer
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(RedisOpt(cfg)),
	}
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Record enqueues r once per run id; a duplicate enqueue is not an error.
func (c *Client) Record(ctx context.Context, r audit.Record) error {
	task, err := NewAuditRecordTask(r)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, task,
		asynq.Queue(QueueLow),
		asynq.TaskID(r.RunID.String()),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	_, err := c.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type(), err)
	}
	return nil
}
