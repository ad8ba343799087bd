package transcription

import (
	"context"
	"errors"
	"io"
)

type objectPutter interface {
	PutObject(ctx context.Context, signedURL, contentType string, body io.Reader, size int64) error
}

// Uploader writes the video to a signed URL in one full-body request. There
// is no resume: a failed upload fails the run.
type Uploader struct {
	client objectPutter
}

func NewUploader(client objectPutter) *Uploader {
	return &Uploader{client: client}
}

func (u *Uploader) UploadBinary(ctx context.Context, signedURL string, payload VideoPayload) error {
	switch {
	case signedURL == "":
		return newStageError(StageUpload, ErrUpload, errors.New("signed url required"))
	case payload.Body == nil:
		return newStageError(StageUpload, ErrUpload, errors.New("payload has no body"))
	case payload.ContentType == "":
		return newStageError(StageUpload, ErrUpload, errors.New("payload has no media type"))
	}

	size := payload.Size
	if size <= 0 {
		size = -1
	}
	if err := u.client.PutObject(ctx, signedURL, payload.ContentType, payload.Body, size); err != nil {
		return newStageError(StageUpload, ErrUpload, err)
	}
	return nil
}
