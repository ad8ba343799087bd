package transcription

import (
	"errors"
	"fmt"
)

// Stage names one step of a pipeline run.
type Stage string

const (
	StageAuth       Stage = "auth"
	StageAllocation Stage = "allocation"
	StageUpload     Stage = "upload"
	StageSubmission Stage = "submission"
	StagePoll       Stage = "poll"
)

// Error kinds. Every error returned by this package matches exactly one of
// these with errors.Is.
var (
	ErrAuth        = errors.New("authentication failed")
	ErrAllocation  = errors.New("upload target allocation failed")
	ErrUpload      = errors.New("video upload failed")
	ErrSubmission  = errors.New("job submission failed")
	ErrPoll        = errors.New("job status polling failed")
	ErrPollTimeout = errors.New("timed out waiting for job completion")
	ErrJobFailed   = errors.New("transcription job failed")
)

var (
	ErrUnknownJobState = errors.New("unknown job state")
	ErrTokenExpired    = errors.New("access token missing or expired")
)

// StageError tags a failure with the stage that produced it and its kind.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func newStageError(stage Stage, kind, err error) *StageError {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s stage: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s stage: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// JobFailedError carries the provider's diagnostic for a failed job.
type JobFailedError struct {
	JobID      string
	Diagnostic string
}

func (e *JobFailedError) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("job %s reported failure", e.JobID)
	}
	return fmt.Sprintf("job %s: %s", e.JobID, e.Diagnostic)
}

// StageOf returns the stage an error was tagged with, or "" if untagged.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
