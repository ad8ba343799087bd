package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type tokenRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// TokenResponse is the body returned by the token endpoint. ExpiresIn is in
// seconds and zero when the provider omits it.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

type uploadURLRequest struct {
	FileName string `json:"fileName"`
}

// UploadURL is the destination descriptor for one asset. URL is the durable
// file reference used for job creation.
type UploadURL struct {
	SignedURL string `json:"signedUrl"`
	URL       string `json:"url"`
}

// CreateTranscriptionRequest asks the provider to transcribe an uploaded file.
type CreateTranscriptionRequest struct {
	FileURL  string `json:"fileUrl"`
	Language string `json:"language"`
	Webhook  string `json:"webhook,omitempty"`
}

type createTranscriptionResponse struct {
	JobID string `json:"jobId"`
}

// JobStatus is the provider's view of a transcription job.
type JobStatus struct {
	JobID   string          `json:"jobId,omitempty"`
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// IssueToken exchanges client credentials for an access token.
func (c *Client) IssueToken(ctx context.Context, clientID, clientSecret string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.doJSON(ctx, http.MethodPost, c.cfg.AuthRoute, "", tokenRequest{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateUploadURL requests a signed upload destination for fileName.
func (c *Client) GenerateUploadURL(ctx context.Context, token, fileName string) (*UploadURL, error) {
	var out envelope[UploadURL]
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.UploadURLRoute, token, uploadURLRequest{FileName: fileName}, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("%w: upload url response has no data", ErrMalformedResponse)
	}
	return out.Data, nil
}

// PutObject writes body to a signed URL in a single request. The signed URL
// carries its own authorization, so no bearer token is sent. size may be
// negative when unknown.
func (c *Client) PutObject(ctx context.Context, signedURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, body)
	if err != nil {
		return fmt.Errorf("create PUT request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := c.uploadHTTP.Do(req)
	if err != nil {
		return fmt.Errorf("PUT signed url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(http.MethodPut, redactQuery(signedURL), resp.StatusCode, respBody)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// CreateTranscription submits a job and returns its id.
func (c *Client) CreateTranscription(ctx context.Context, token string, req CreateTranscriptionRequest) (string, error) {
	var out envelope[createTranscriptionResponse]
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.TranscriptionRoute, token, req, &out); err != nil {
		return "", err
	}
	if out.Data == nil {
		return "", fmt.Errorf("%w: transcription response has no data", ErrMalformedResponse)
	}
	return out.Data.JobID, nil
}

// GetJob fetches the current status of a job. It never changes remote state.
func (c *Client) GetJob(ctx context.Context, token, jobID string) (*JobStatus, error) {
	var out envelope[JobStatus]
	route := c.cfg.JobStatusRoute + url.PathEscape(jobID)
	if err := c.doJSON(ctx, http.MethodGet, route, token, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("%w: job response has no data", ErrMalformedResponse)
	}
	return out.Data, nil
}

// redactQuery drops the signature from a signed URL before it lands in logs.
func redactQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "signed-url"
	}
	u.RawQuery = ""
	return u.String()
}
