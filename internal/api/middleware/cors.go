package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows browser uploads from allowedOrigins. Credentials are only
// allowed when no wildcard origin is configured.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Transcription-Job-Id", "X-Request-Id"},
		AllowCredentials: allowCreds,
		MaxAge:           3600,
	})
}
