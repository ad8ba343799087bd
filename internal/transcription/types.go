package transcription

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// AccessToken is a short-lived provider credential owned by a single run.
// A zero ExpiresAt means the provider did not say when it expires.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token is present and not yet expired at now.
func (t AccessToken) Valid(now time.Time) bool {
	if t.Value == "" {
		return false
	}
	return t.ExpiresAt.IsZero() || now.Before(t.ExpiresAt)
}

// UploadTarget is where a run writes its video and how it refers to it later.
type UploadTarget struct {
	SignedURL     string
	FileReference string
}

// VideoPayload is the uploaded video as handed over by the HTTP layer. Body
// is read exactly once. Size is negative when unknown.
type VideoPayload struct {
	Body        io.Reader
	ContentType string
	Size        int64
	Filename    string
}

// JobState is the classified state of a remote transcription job.
type JobState string

const (
	JobPending    JobState = "Pending"
	JobInProgress JobState = "InProgress"
	JobCompleted  JobState = "Completed"
	JobFailed     JobState = "Failed"
)

// Terminal reports whether no further transition can happen.
func (s JobState) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

var providerStates = map[string]JobState{
	"pending":     JobPending,
	"queued":      JobPending,
	"submitted":   JobPending,
	"in-progress": JobInProgress,
	"in_progress": JobInProgress,
	"inprogress":  JobInProgress,
	"processing":  JobInProgress,
	"running":     JobInProgress,
	"completed":   JobCompleted,
	"complete":    JobCompleted,
	"succeeded":   JobCompleted,
	"success":     JobCompleted,
	"failed":      JobFailed,
	"error":       JobFailed,
	"cancelled":   JobFailed,
	"canceled":    JobFailed,
}

// ParseJobState maps a provider status string onto a JobState. Unrecognised
// strings are an error, never an implicit "still running".
func ParseJobState(raw string) (JobState, error) {
	if s, ok := providerStates[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownJobState, raw)
}

// Job is an observation of a remote job; the poller never mutates it.
type Job struct {
	ID         string
	State      JobState
	Result     json.RawMessage
	Diagnostic string
}

// TranscriptionResult is what a successful run returns to the caller.
type TranscriptionResult struct {
	JobID  string          `json:"-"`
	State  JobState        `json:"state"`
	Result json.RawMessage `json:"result"`
}
