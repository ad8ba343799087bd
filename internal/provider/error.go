package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const maxErrorBody = 512

// APIError is a non-2xx response from the provider.
type APIError struct {
	Method  string
	Route   string
	Status  int
	Message string
}

func newAPIError(method, route string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Route: route, Status: status}

	var structured struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &structured) == nil {
		e.Message = structured.Message
		if e.Message == "" {
			e.Message = structured.Error
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	if len(e.Message) > maxErrorBody {
		e.Message = e.Message[:maxErrorBody]
	}
	return e
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider: %s %s: status %d", e.Method, e.Route, e.Status)
	}
	return fmt.Sprintf("provider: %s %s: status %d: %s", e.Method, e.Route, e.Status, e.Message)
}

// Temporary reports whether the same request may succeed if sent again.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests || e.Status == http.StatusRequestTimeout
}
