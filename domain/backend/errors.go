package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnhealthy   = errors.New("backend unhealthy")
	ErrEmptyUpload = errors.New("empty upload")
	ErrNoBaseURL   = errors.New("backend url not configured")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Endpoint   Endpoint
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s failed: status %d", e.Endpoint.Path(), e.StatusCode)
	}
	return fmt.Sprintf("%s failed: status %d: %s", e.Endpoint.Path(), e.StatusCode, e.Detail)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return true
	}
	return false
}

// newStatusError extracts FastAPI's {"detail": ...} when the body carries it
// and falls back to the raw (truncated) text otherwise.
func newStatusError(ep Endpoint, code int, body []byte) *StatusError {
	detail := strings.TrimSpace(string(body))
	var parsed errorResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != nil {
		switch d := parsed.Detail.(type) {
		case string:
			detail = d
		default:
			if b, err := json.Marshal(d); err == nil {
				detail = string(b)
			}
		}
	}
	return &StatusError{Endpoint: ep, StatusCode: code, Detail: detail}
}
