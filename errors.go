package ghapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tphakala/go-ghapi/internal/api"
)

// ErrNotBound is returned when a context-dependent method is called on a
// model that was parsed without a bound repository or client.
var ErrNotBound = errors.New("ghapi: model not bound to a client")

// defaultRetryWait is used when a rate-limited response carries neither
// a Retry-After nor a usable X-RateLimit-Reset header.
const defaultRetryWait = 60 * time.Second

// APIError represents a general GitHub API error. The raw response body
// is retained so callers can inspect fields beyond the message.
type APIError struct {
	StatusCode int
	Message    string
	Response   []byte
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ghapi: API error %d: %s", e.StatusCode, e.Message)
	}
	return "ghapi: API error: " + e.Message
}

// AuthenticationError indicates authentication failure (401).
type AuthenticationError struct {
	APIError
}

func (e *AuthenticationError) Error() string {
	return "ghapi: authentication failed: " + e.Message
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *AuthenticationError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// NotFoundError indicates the requested resource was not found (404).
type NotFoundError struct {
	APIError
}

func (e *NotFoundError) Error() string {
	return "ghapi: not found: " + e.Message
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *NotFoundError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// RateLimitError indicates the API rate limit was exceeded (403/429).
// ResetAt carries the quota reset time from the X-RateLimit-Reset
// header, nil when absent or unparseable.
type RateLimitError struct {
	APIError
	ResetAt *time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetAt != nil {
		return fmt.Sprintf("ghapi: rate limit exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
	}
	return "ghapi: rate limit exceeded"
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *RateLimitError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// ValidationError indicates the request was well-formed but semantically
// invalid (422).
type ValidationError struct {
	APIError
}

func (e *ValidationError) Error() string {
	return "ghapi: validation failed: " + e.Message
}

// As implements error unwrapping for errors.As to match *APIError.
func (e *ValidationError) As(target any) bool {
	if t, ok := target.(**APIError); ok {
		*t = &e.APIError
		return true
	}
	return false
}

// classifyError converts an error response into the appropriate typed
// error. Classification is strictly by status code; the message comes
// from the JSON "message" field with the raw body text as fallback.
func classifyError(statusCode int, headers http.Header, body []byte) error {
	base := APIError{
		StatusCode: statusCode,
		Message:    errorMessage(body),
		Response:   body,
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return &AuthenticationError{APIError: base}
	case http.StatusNotFound:
		return &NotFoundError{APIError: base}
	case http.StatusForbidden, http.StatusTooManyRequests:
		return &RateLimitError{
			APIError: base,
			ResetAt:  parseResetHeader(headers.Get("X-RateLimit-Reset")),
		}
	case http.StatusUnprocessableEntity:
		return &ValidationError{APIError: base}
	default:
		return &base
	}
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return string(body)
}

// parseResetHeader parses an X-RateLimit-Reset epoch-seconds value.
func parseResetHeader(value string) *time.Time {
	if value == "" {
		return nil
	}
	epoch, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(epoch, 0)
	return &t
}

// isRateLimited reports whether an error response is rate-limit shaped:
// status 403 or 429, with either an exhausted quota header, the 429
// status itself, or a rate-limit/abuse phrase in the error message.
func isRateLimited(resp *api.Response) bool {
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	if resp.Headers.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err == nil {
		msg := strings.ToLower(payload.Message)
		if strings.Contains(msg, "rate limit") || strings.Contains(msg, "abuse") {
			return true
		}
	}
	return resp.StatusCode == http.StatusTooManyRequests
}

// retryWait computes how long to wait before retrying a rate-limited
// request: a literal Retry-After value in seconds, else the time until
// X-RateLimit-Reset (at least one second), else a fixed default.
func retryWait(headers http.Header, now time.Time) time.Duration {
	if value := headers.Get("Retry-After"); value != "" {
		if seconds, err := strconv.ParseFloat(value, 64); err == nil {
			return time.Duration(seconds * float64(time.Second))
		}
	}

	if value := headers.Get("X-RateLimit-Reset"); value != "" {
		if epoch, err := strconv.ParseInt(value, 10, 64); err == nil {
			wait := time.Unix(epoch, 0).Sub(now)
			if wait < time.Second {
				wait = time.Second
			}
			return wait
		}
	}

	return defaultRetryWait
}
