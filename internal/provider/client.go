// Package provider is the wire client for the remote transcription provider:
// token issuance, upload URL generation, signed binary upload, job creation
// and job status lookup.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nikhilbhutani/videoscribe/internal/config"
)

const maxResponseBytes = 8 << 20

// ErrMalformedResponse is wrapped when a 2xx body cannot be decoded.
var ErrMalformedResponse = errors.New("malformed provider response")

// Client talks to the provider. It holds no per-request state and is safe
// for concurrent use.
type Client struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	uploadHTTP *http.Client
}

// NewClient builds a Client with per-call timeouts taken from cfg.
func NewClient(cfg config.ProviderConfig) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 10 * time.Minute
	}
	if cfg.UserIDHeader == "" {
		cfg.UserIDHeader = "x-user-id"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		uploadHTTP: &http.Client{Timeout: cfg.UploadTimeout},
	}
}

type envelope[T any] struct {
	Data *T `json:"data"`
}

func (c *Client) newRequest(ctx context.Context, method, url, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(c.cfg.UserIDHeader, c.cfg.UserID)
	}
	return req, nil
}

// doJSON sends in (when non-nil) as JSON to BaseURL+route and decodes a 2xx
// response into out. Non-2xx responses become *APIError.
func (c *Client) doJSON(ctx context.Context, method, route, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, c.cfg.BaseURL+route, token, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, route, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(method, route, resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrMalformedResponse, method, route, err)
		}
	}
	return nil
}
