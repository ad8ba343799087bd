package transcription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikhilbhutani/videoscribe/internal/provider"
)

type uploadURLGenerator interface {
	GenerateUploadURL(ctx context.Context, token, fileName string) (*provider.UploadURL, error)
}

// UploadAllocator obtains the signed destination for a run's asset.
type UploadAllocator struct {
	client uploadURLGenerator
	now    func() time.Time
}

func NewUploadAllocator(client uploadURLGenerator) *UploadAllocator {
	return &UploadAllocator{client: client, now: time.Now}
}

// AllocateUploadTarget refuses expired tokens locally. Provider rejections
// are returned unmasked inside the AllocationError.
func (a *UploadAllocator) AllocateUploadTarget(ctx context.Context, token AccessToken, assetName string) (UploadTarget, error) {
	if !token.Valid(a.now()) {
		return UploadTarget{}, newStageError(StageAllocation, ErrAllocation, ErrTokenExpired)
	}
	if assetName == "" {
		return UploadTarget{}, newStageError(StageAllocation, ErrAllocation, errors.New("asset name required"))
	}

	dest, err := a.client.GenerateUploadURL(ctx, token.Value, assetName)
	if err != nil {
		return UploadTarget{}, newStageError(StageAllocation, ErrAllocation, err)
	}
	if dest.SignedURL == "" || dest.URL == "" {
		return UploadTarget{}, newStageError(StageAllocation, ErrAllocation,
			fmt.Errorf("%w: missing signedUrl or url", provider.ErrMalformedResponse))
	}

	return UploadTarget{SignedURL: dest.SignedURL, FileReference: dest.URL}, nil
}
