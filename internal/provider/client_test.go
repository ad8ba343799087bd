package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nikhilbhutani/videoscribe/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.ProviderConfig{
		BaseURL:            srv.URL,
		AuthRoute:          "/auth",
		UploadURLRoute:     "/upload-url",
		TranscriptionRoute: "/transcriptions",
		JobStatusRoute:     "/jobs/",
		UserID:             "user-7",
		UserIDHeader:       "x-user-id",
	}), srv
}

// TestIssueTokenSendsCredentials checks body and the absence of auth headers.
func TestIssueTokenSendsCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("token request must not carry a bearer token")
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["clientId"] != "id" || body["clientSecret"] != "secret" {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(`{"access_token":"tok123","expires_in":3600}`))
	})

	tok, err := client.IssueToken(context.Background(), "id", "secret")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if tok.AccessToken != "tok123" || tok.ExpiresIn != 3600 {
		t.Fatalf("token = %+v", tok)
	}
}

// TestAuthenticatedHeaders checks bearer and user id headers on job calls.
func TestAuthenticatedHeaders(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("x-user-id"); got != "user-7" {
			t.Errorf("user id = %q", got)
		}
		if r.URL.Path != "/jobs/job-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"status":"in-progress"}}`))
	})

	job, err := client.GetJob(context.Background(), "tok", "job-1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if job.Status != "in-progress" {
		t.Fatalf("status = %q", job.Status)
	}
}

// TestGenerateUploadURLDecodesEnvelope checks the data envelope.
func TestGenerateUploadURLDecodesEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["fileName"] != "a.mp4" {
			t.Errorf("fileName = %q", body["fileName"])
		}
		w.Write([]byte(`{"data":{"signedUrl":"https://up/x","url":"https://files/x.mp4"}}`))
	})

	dest, err := client.GenerateUploadURL(context.Background(), "tok", "a.mp4")
	if err != nil {
		t.Fatalf("GenerateUploadURL() error = %v", err)
	}
	if dest.SignedURL != "https://up/x" || dest.URL != "https://files/x.mp4" {
		t.Fatalf("dest = %+v", dest)
	}
}

// TestMissingEnvelopeIsMalformed covers a 2xx body without data.
func TestMissingEnvelopeIsMalformed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	})

	_, err := client.CreateTranscription(context.Background(), "tok", CreateTranscriptionRequest{FileURL: "f"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

// TestInvalidJSONIsMalformed covers an undecodable 2xx body.
func TestInvalidJSONIsMalformed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})

	_, err := client.GetJob(context.Background(), "tok", "job-1")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

// TestAPIErrorCarriesStatusAndMessage checks non-2xx handling.
func TestAPIErrorCarriesStatusAndMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	})

	_, err := client.GenerateUploadURL(context.Background(), "tok", "a.mp4")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "token expired" {
		t.Fatalf("api error = %+v", apiErr)
	}
	if apiErr.Temporary() {
		t.Fatal("401 must not be temporary")
	}
}

// TestPutObjectStreamsBody checks content type, body and missing auth.
func TestPutObjectStreamsBody(t *testing.T) {
	var got string
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "video/webm" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("signed upload must not carry a bearer token")
		}
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	})

	err := client.PutObject(context.Background(), srv.URL+"/bucket/x?sig=abc", "video/webm", strings.NewReader("frames"), 6)
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if got != "frames" {
		t.Fatalf("uploaded = %q", got)
	}
}

// TestPutObjectRedactsSignature keeps the signature out of error text.
func TestPutObjectRedactsSignature(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := client.PutObject(context.Background(), srv.URL+"/bucket/x?sig=secret", "video/mp4", strings.NewReader("x"), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("error leaks signature: %v", err)
	}
}
