package config

import (
	"strings"
	"testing"
	"time"
)

func setProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BASE_URL", "https://provider.example/")
	t.Setenv("AUTH_ROUTE", "/auth/token")
	t.Setenv("GENERATEURL_ROUTE", "/upload-url")
	t.Setenv("TRANSCRIPTION_ROUTE", "/transcriptions")
	t.Setenv("GET_JOB_ROUTE", "/jobs/")
	t.Setenv("CLIENT_ID", "client")
	t.Setenv("CLIENT_SECRET", "secret")
	t.Setenv("USER_ID", "user-1")
}

// TestLoadDefaults checks fallback values and base URL normalisation.
func TestLoadDefaults(t *testing.T) {
	setProviderEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Provider.BaseURL != "https://provider.example" {
		t.Fatalf("base url = %q", cfg.Provider.BaseURL)
	}
	if cfg.Server.Port != 5000 {
		t.Fatalf("port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Provider.DefaultLanguage != "en-US" {
		t.Fatalf("default language = %q", cfg.Provider.DefaultLanguage)
	}
	if cfg.Provider.UserIDHeader != "x-user-id" {
		t.Fatalf("user id header = %q", cfg.Provider.UserIDHeader)
	}
	if cfg.Poll.Interval != 2*time.Second || cfg.Poll.Timeout != 10*time.Minute {
		t.Fatalf("poll config = %+v", cfg.Poll)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Fatalf("cors origins = %v", cfg.Server.CORSOrigins)
	}
}

// TestLoadDurations accepts both duration strings and bare seconds.
func TestLoadDurations(t *testing.T) {
	setProviderEnv(t)
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("POLL_TIMEOUT", "90")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Poll.Interval != 500*time.Millisecond {
		t.Fatalf("interval = %s", cfg.Poll.Interval)
	}
	if cfg.Poll.Timeout != 90*time.Second {
		t.Fatalf("timeout = %s", cfg.Poll.Timeout)
	}
}

// TestLoadRejectsMalformedNumbers reports every bad key at once.
func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("SERVER_PORT", "http")
	t.Setenv("POLL_TIMEOUT", "soon")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"SERVER_PORT", "POLL_TIMEOUT"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error %q does not mention %s", err, key)
		}
	}
}

// TestValidateMissing lists every required provider key that is absent.
func TestValidateMissing(t *testing.T) {
	setProviderEnv(t)
	t.Setenv("CLIENT_SECRET", "")
	t.Setenv("GET_JOB_ROUTE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "CLIENT_SECRET") || !strings.Contains(err.Error(), "GET_JOB_ROUTE") {
		t.Fatalf("error = %v", err)
	}
}

// TestValidatePollBounds rejects a max interval below the base interval.
func TestValidatePollBounds(t *testing.T) {
	setProviderEnv(t)
	t.Setenv("POLL_INTERVAL", "10s")
	t.Setenv("POLL_MAX_INTERVAL", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected poll bounds error")
	}
}
