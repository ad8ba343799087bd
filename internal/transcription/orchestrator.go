// Package transcription drives one uploaded video through the provider:
// token, upload target, upload, job submission, then polling until the job
// is terminal.
package transcription

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/videoscribe/internal/audit"
	"github.com/nikhilbhutani/videoscribe/internal/config"
	"github.com/nikhilbhutani/videoscribe/internal/metrics"
	"github.com/nikhilbhutani/videoscribe/internal/provider"
)

type Authenticator interface {
	FetchToken(ctx context.Context, clientID, clientSecret string) (AccessToken, error)
}

type TargetAllocator interface {
	AllocateUploadTarget(ctx context.Context, token AccessToken, assetName string) (UploadTarget, error)
}

type BinaryUploader interface {
	UploadBinary(ctx context.Context, signedURL string, payload VideoPayload) error
}

type JobSubmitter interface {
	SubmitJob(ctx context.Context, token AccessToken, fileReference, language, notificationURL string) (string, error)
}

type StatusPoller interface {
	AwaitCompletion(ctx context.Context, token AccessToken, jobID string) (*Job, error)
}

// Stages are the five steps of a run, in execution order.
type Stages struct {
	Auth      Authenticator
	Allocator TargetAllocator
	Uploader  BinaryUploader
	Submitter JobSubmitter
	Poller    StatusPoller
}

type Options struct {
	ClientID        string
	ClientSecret    string
	NotificationURL string
	DefaultLanguage string
	Recorder        audit.Recorder
}

// Orchestrator sequences the stages. It keeps no state between runs, so one
// instance serves concurrent requests; everything a run produces lives on
// that run's stack.
type Orchestrator struct {
	stages Stages
	opts   Options
}

func NewOrchestrator(stages Stages, opts Options) *Orchestrator {
	if opts.Recorder == nil {
		opts.Recorder = audit.LogRecorder{}
	}
	return &Orchestrator{stages: stages, opts: opts}
}

// New wires the provider-backed stages from configuration.
func New(cfg *config.Config, client *provider.Client, recorder audit.Recorder) *Orchestrator {
	return NewOrchestrator(Stages{
		Auth:      NewCredentialProvider(client),
		Allocator: NewUploadAllocator(client),
		Uploader:  NewUploader(client),
		Submitter: NewSubmitter(client),
		Poller:    NewPoller(client, cfg.Poll),
	}, Options{
		ClientID:        cfg.Provider.ClientID,
		ClientSecret:    cfg.Provider.ClientSecret,
		NotificationURL: cfg.Provider.WebhookURL,
		DefaultLanguage: cfg.Provider.DefaultLanguage,
		Recorder:        recorder,
	})
}

// RunTranscription runs every stage strictly in order. The first failure
// stops the run and is returned as a *StageError naming that stage.
func (o *Orchestrator) RunTranscription(ctx context.Context, payload VideoPayload, language string) (*TranscriptionResult, error) {
	if language == "" {
		language = o.opts.DefaultLanguage
	}

	runID := uuid.New()
	log := slog.With("run_id", runID)
	rec := audit.Record{
		RunID:       runID,
		Language:    language,
		ContentType: payload.ContentType,
		SizeBytes:   payload.Size,
		StartedAt:   time.Now(),
	}

	result, err := o.run(ctx, log, runID, payload, language, &rec)

	rec.Duration = time.Since(rec.StartedAt)
	if err != nil {
		rec.Outcome = audit.OutcomeFailed
		rec.FailedStage = string(StageOf(err))
		rec.Error = err.Error()
		log.Warn("transcription run failed", "stage", rec.FailedStage, "error", err)
	} else {
		rec.Outcome = audit.OutcomeCompleted
		log.Info("transcription run completed", "job_id", rec.JobID, "duration", rec.Duration)
	}
	metrics.Runs.WithLabelValues(rec.Outcome).Inc()
	o.record(ctx, log, rec)

	return result, err
}

func (o *Orchestrator) run(ctx context.Context, log *slog.Logger, runID uuid.UUID, payload VideoPayload, language string, rec *audit.Record) (*TranscriptionResult, error) {
	var token AccessToken
	err := o.stage(ctx, log, StageAuth, ErrAuth, func(ctx context.Context) (err error) {
		token, err = o.stages.Auth.FetchToken(ctx, o.opts.ClientID, o.opts.ClientSecret)
		return err
	})
	if err != nil {
		return nil, err
	}

	var target UploadTarget
	err = o.stage(ctx, log, StageAllocation, ErrAllocation, func(ctx context.Context) (err error) {
		target, err = o.stages.Allocator.AllocateUploadTarget(ctx, token, assetName(runID, payload))
		return err
	})
	if err != nil {
		return nil, err
	}

	err = o.stage(ctx, log, StageUpload, ErrUpload, func(ctx context.Context) error {
		return o.stages.Uploader.UploadBinary(ctx, target.SignedURL, payload)
	})
	if err != nil {
		return nil, err
	}

	var jobID string
	err = o.stage(ctx, log, StageSubmission, ErrSubmission, func(ctx context.Context) (err error) {
		jobID, err = o.stages.Submitter.SubmitJob(ctx, token, target.FileReference, language, o.opts.NotificationURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	rec.JobID = jobID
	log = log.With("job_id", jobID)

	var job *Job
	err = o.stage(ctx, log, StagePoll, ErrPoll, func(ctx context.Context) (err error) {
		job, err = o.stages.Poller.AwaitCompletion(ctx, token, jobID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &TranscriptionResult{JobID: jobID, State: job.State, Result: job.Result}, nil
}

// stage times fn and guarantees the error it returns is a *StageError for
// this stage.
func (o *Orchestrator) stage(ctx context.Context, log *slog.Logger, stage Stage, kind error, fn func(context.Context) error) error {
	start := time.Now()
	log.Debug("stage started", "stage", stage)

	err := fn(ctx)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		var se *StageError
		if !errors.As(err, &se) {
			err = newStageError(stage, kind, err)
		}
	}
	metrics.StageDuration.WithLabelValues(string(stage), outcome).Observe(time.Since(start).Seconds())
	log.Debug("stage finished", "stage", stage, "outcome", outcome, "elapsed", time.Since(start))
	return err
}

func (o *Orchestrator) record(ctx context.Context, log *slog.Logger, rec audit.Record) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.opts.Recorder.Record(ctx, rec); err != nil {
		log.Error("failed to record transcription run", "error", err)
	}
}

// assetName gives each run a unique provider-side file name that keeps the
// upload's extension.
func assetName(runID uuid.UUID, payload VideoPayload) string {
	ext := strings.ToLower(filepath.Ext(payload.Filename))
	if ext == "" {
		if exts, err := mime.ExtensionsByType(payload.ContentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	if ext == "" {
		ext = ".mp4"
	}
	return runID.String() + ext
}
