package transcription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikhilbhutani/videoscribe/internal/provider"
)

type jobCreator interface {
	CreateTranscription(ctx context.Context, token string, req provider.CreateTranscriptionRequest) (string, error)
}

// Submitter creates transcription jobs. The notification URL is forwarded
// to the provider; completion is still detected by polling.
type Submitter struct {
	client jobCreator
	now    func() time.Time
}

func NewSubmitter(client jobCreator) *Submitter {
	return &Submitter{client: client, now: time.Now}
}

func (s *Submitter) SubmitJob(ctx context.Context, token AccessToken, fileReference, language, notificationURL string) (string, error) {
	switch {
	case !token.Valid(s.now()):
		return "", newStageError(StageSubmission, ErrSubmission, ErrTokenExpired)
	case fileReference == "":
		return "", newStageError(StageSubmission, ErrSubmission, errors.New("file reference required"))
	case language == "":
		return "", newStageError(StageSubmission, ErrSubmission, errors.New("language required"))
	}

	jobID, err := s.client.CreateTranscription(ctx, token.Value, provider.CreateTranscriptionRequest{
		FileURL:  fileReference,
		Language: language,
		Webhook:  notificationURL,
	})
	if err != nil {
		return "", newStageError(StageSubmission, ErrSubmission, err)
	}
	if jobID == "" {
		return "", newStageError(StageSubmission, ErrSubmission,
			fmt.Errorf("%w: response has no jobId", provider.ErrMalformedResponse))
	}
	return jobID, nil
}
