package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Provider ProviderConfig
	Poll     PollConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	MaxUploadBytes int64
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// ProviderConfig describes the remote transcription provider. Routes are
// appended verbatim to BaseURL; JobStatusRoute is followed by the job id.
type ProviderConfig struct {
	BaseURL            string
	AuthRoute          string
	UploadURLRoute     string
	TranscriptionRoute string
	JobStatusRoute     string
	ClientID           string
	ClientSecret       string
	UserID             string
	UserIDHeader       string
	WebhookURL         string // optional, forwarded to the provider only
	DefaultLanguage    string
	RequestTimeout     time.Duration
	UploadTimeout      time.Duration
}

type PollConfig struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	Timeout     time.Duration
	MaxRetries  int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type WorkerConfig struct {
	Concurrency int
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, seeds variables that are not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	var errs []error
	intVar := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}
	durVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}
	floatVar := func(key string, fallback float64) float64 {
		v, err := getEnvFloat(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           intVar("SERVER_PORT", 5000),
			MaxUploadBytes: int64(intVar("MAX_UPLOAD_BYTES", 1<<30)),
			CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
			RateLimitRPS:   floatVar("RATE_LIMIT_RPS", 5),
			RateLimitBurst: intVar("RATE_LIMIT_BURST", 10),
		},
		Provider: ProviderConfig{
			BaseURL:            strings.TrimRight(getEnv("BASE_URL", ""), "/"),
			AuthRoute:          getEnv("AUTH_ROUTE", ""),
			UploadURLRoute:     getEnv("GENERATEURL_ROUTE", ""),
			TranscriptionRoute: getEnv("TRANSCRIPTION_ROUTE", ""),
			JobStatusRoute:     getEnv("GET_JOB_ROUTE", ""),
			ClientID:           getEnv("CLIENT_ID", ""),
			ClientSecret:       getEnv("CLIENT_SECRET", ""),
			UserID:             getEnv("USER_ID", ""),
			UserIDHeader:       getEnv("USER_ID_HEADER", "x-user-id"),
			WebhookURL:         getEnv("WEBHOOK_URL", ""),
			DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", "en-US"),
			RequestTimeout:     durVar("PROVIDER_REQUEST_TIMEOUT", 30*time.Second),
			UploadTimeout:      durVar("PROVIDER_UPLOAD_TIMEOUT", 10*time.Minute),
		},
		Poll: PollConfig{
			Interval:    durVar("POLL_INTERVAL", 2*time.Second),
			MaxInterval: durVar("POLL_MAX_INTERVAL", 15*time.Second),
			Multiplier:  floatVar("POLL_MULTIPLIER", 2),
			Timeout:     durVar("POLL_TIMEOUT", 10*time.Minute),
			MaxRetries:  intVar("POLL_MAX_RETRIES", 3),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       intVar("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       intVar("DB_MAX_CONNS", 10),
			MinConns:       intVar("DB_MIN_CONNS", 1),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Worker: WorkerConfig{
			Concurrency: intVar("WORKER_CONCURRENCY", 5),
		},
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate reports the settings the API server cannot run without.
func (c *Config) Validate() error {
	var missing []string
	required := []struct{ key, val string }{
		{"BASE_URL", c.Provider.BaseURL},
		{"AUTH_ROUTE", c.Provider.AuthRoute},
		{"GENERATEURL_ROUTE", c.Provider.UploadURLRoute},
		{"TRANSCRIPTION_ROUTE", c.Provider.TranscriptionRoute},
		{"GET_JOB_ROUTE", c.Provider.JobStatusRoute},
		{"CLIENT_ID", c.Provider.ClientID},
		{"CLIENT_SECRET", c.Provider.ClientSecret},
		{"USER_ID", c.Provider.UserID},
	}
	for _, r := range required {
		if r.val == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	if c.Poll.Interval <= 0 || c.Poll.Timeout <= 0 {
		return fmt.Errorf("POLL_INTERVAL and POLL_TIMEOUT must be positive")
	}
	if c.Poll.MaxInterval < c.Poll.Interval {
		return fmt.Errorf("POLL_MAX_INTERVAL (%s) must not be below POLL_INTERVAL (%s)", c.Poll.MaxInterval, c.Poll.Interval)
	}
	if c.Poll.Multiplier < 1 {
		return fmt.Errorf("POLL_MULTIPLIER must be >= 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

// getEnvDuration accepts Go duration strings ("90s", "2m") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
