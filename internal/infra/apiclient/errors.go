package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/aalvaropc/tether/internal/domain"
	"github.com/aalvaropc/tether/internal/retry"
)

var (
	ErrClientCreation    = errors.New("failed to create API client")
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")
	ErrResponseParse     = errors.New("failed to parse API response")
	ErrResourceNotFound  = errors.New("resource not found")
	ErrUnauthorized      = errors.New("authentication required")
	ErrForbidden         = errors.New("access forbidden")
	ErrRateLimitExceeded = errors.New("API rate limit exceeded")
	ErrTimeout           = errors.New("request timed out")
	// ErrMaxRetriesExceeded is returned, joined with the last failure, once
	// every GET attempt has failed.
	ErrMaxRetriesExceeded = retry.ErrExhausted
)

const unknownError = "Unknown error"

// ServerError is any non-success status without a dedicated sentinel.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}

// Is maps a ServerError onto the external service kind.
func (e *ServerError) Is(target error) bool { return target == domain.ErrExternalService }

// ConnectionError means the server could not be reached.
type ConnectionError struct{ Err error }

func (e *ConnectionError) Error() string { return "failed to connect: " + e.Err.Error() }
func (e *ConnectionError) Unwrap() error { return e.Err }

// RequestError is any other transport failure.
type RequestError struct{ Err error }

func (e *RequestError) Error() string { return "request error: " + e.Err.Error() }
func (e *RequestError) Unwrap() error { return e.Err }

// statusError maps a non-2xx status to its error. bodyErr reports a failed
// body read.
func statusError(status int, body []byte, bodyErr error) error {
	switch status {
	case http.StatusNotFound:
		return ErrResourceNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusTooManyRequests:
		return ErrRateLimitExceeded
	}
	if bodyErr != nil {
		return &ServerError{Status: status, Message: unknownError}
	}
	return &ServerError{Status: status, Message: errorMessage(body)}
}

// errorMessage prefers the "error" or "message" field of a JSON body.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		if res.IsObject() {
			for _, field := range []string{"error", "message", "error.message"} {
				if v := res.Get(field); v.Exists() && v.Type == gjson.String && v.Str != "" {
					return v.Str
				}
			}
		}
	}
	return strings.TrimSpace(string(body))
}

// transportError classifies a failure from http.Client.Do.
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var oe *net.OpError
	if errors.As(err, &oe) && oe.Op == "dial" {
		return &ConnectionError{Err: err}
	}
	return &RequestError{Err: err}
}

// retryable reports whether a GET may be attempted again after err.
func retryable(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimitExceeded) {
		return true
	}
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return true
	}
	var se *ServerError
	return errors.As(err, &se) && se.Status >= 500
}
