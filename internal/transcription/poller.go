package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nikhilbhutani/videoscribe/internal/config"
	"github.com/nikhilbhutani/videoscribe/internal/metrics"
	"github.com/nikhilbhutani/videoscribe/internal/provider"
)

// finalQueryLead is how far ahead of the deadline the last query is sent.
const finalQueryLead = time.Second

type jobFetcher interface {
	GetJob(ctx context.Context, token, jobID string) (*provider.JobStatus, error)
}

// Poller waits for a job to reach a terminal state. Queries are spaced by a
// capped exponential delay and the whole wait is bounded by cfg.Timeout.
type Poller struct {
	client jobFetcher
	cfg    config.PollConfig
}

func NewPoller(client jobFetcher, cfg config.PollConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.MaxInterval < cfg.Interval {
		cfg.MaxInterval = cfg.Interval
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Poller{client: client, cfg: cfg}
}

// AwaitCompletion returns the job once it is Completed. A Failed job yields
// a *JobFailedError tagged ErrJobFailed; exhausting cfg.Timeout yields
// ErrPollTimeout; query failures that cannot be retried, or that exceed
// cfg.MaxRetries in a row, yield ErrPoll. Cancelling ctx stops the wait
// immediately. No query is started once the deadline has passed.
func (p *Poller) AwaitCompletion(ctx context.Context, token AccessToken, jobID string) (*Job, error) {
	if jobID == "" {
		return nil, newStageError(StagePoll, ErrPoll, errors.New("job id required"))
	}

	start := time.Now()
	deadline := start.Add(p.cfg.Timeout)
	pollCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	log := slog.With("job_id", jobID)
	var (
		queries   int
		failures  int
		lastState JobState
		final     bool
	)
	stopped := func() error {
		if err := ctx.Err(); err != nil {
			return newStageError(StagePoll, ErrPoll, err)
		}
		return p.timeoutError(jobID, queries, lastState)
	}

	for attempt := 0; ; attempt++ {
		if pollCtx.Err() != nil {
			return nil, stopped()
		}

		queries++
		job, err := p.query(pollCtx, token, jobID)
		switch {
		case err == nil:
			failures = 0
			lastState = job.State
			switch job.State {
			case JobCompleted:
				log.Debug("job completed", "queries", queries, "elapsed", time.Since(start))
				return job, nil
			case JobFailed:
				return nil, newStageError(StagePoll, ErrJobFailed, &JobFailedError{JobID: jobID, Diagnostic: job.Diagnostic})
			}
		case pollCtx.Err() != nil:
			return nil, stopped()
		case !retryable(err):
			return nil, newStageError(StagePoll, ErrPoll, err)
		default:
			failures++
			if failures > p.cfg.MaxRetries {
				return nil, newStageError(StagePoll, ErrPoll,
					fmt.Errorf("giving up after %d consecutive failed queries: %w", failures, err))
			}
			log.Warn("job status query failed, retrying", "attempt", failures, "error", err)
		}

		if final {
			return nil, p.timeoutError(jobID, queries, lastState)
		}

		// When the backoff would overrun the deadline, make one last query
		// shortly before it instead.
		wait := p.delay(attempt)
		if remaining := time.Until(deadline); wait >= remaining {
			wait = remaining - min(finalQueryLead, remaining/2)
			final = true
			if wait <= 0 {
				return nil, p.timeoutError(jobID, queries, lastState)
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-pollCtx.Done():
			timer.Stop()
			return nil, stopped()
		case <-timer.C:
		}
	}
}

func (p *Poller) query(ctx context.Context, token AccessToken, jobID string) (*Job, error) {
	status, err := p.client.GetJob(ctx, token.Value, jobID)
	if err != nil {
		metrics.PollQueries.WithLabelValues("error").Inc()
		return nil, err
	}

	state, err := ParseJobState(status.Status)
	if err != nil {
		metrics.PollQueries.WithLabelValues("unknown").Inc()
		return nil, err
	}
	metrics.PollQueries.WithLabelValues(string(state)).Inc()

	diag := status.Error
	if diag == "" {
		diag = status.Message
	}
	return &Job{ID: jobID, State: state, Result: status.Result, Diagnostic: diag}, nil
}

// delay is Interval * Multiplier^attempt, capped at MaxInterval.
func (p *Poller) delay(attempt int) time.Duration {
	d := float64(p.cfg.Interval) * math.Pow(p.cfg.Multiplier, float64(attempt))
	if d > float64(p.cfg.MaxInterval) || math.IsInf(d, 0) {
		return p.cfg.MaxInterval
	}
	return time.Duration(d)
}

func (p *Poller) timeoutError(jobID string, queries int, last JobState) error {
	return newStageError(StagePoll, ErrPollTimeout,
		fmt.Errorf("job %s not terminal after %s (%d queries, last state %q)", jobID, p.cfg.Timeout, queries, last))
}

// retryable reports whether a failed status query may be repeated. Transport
// failures, malformed bodies and 5xx/429 responses are transient; other
// provider rejections and unknown states are not.
func retryable(err error) bool {
	if errors.Is(err, ErrUnknownJobState) {
		return false
	}
	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
