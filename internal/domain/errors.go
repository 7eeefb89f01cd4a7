package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports a missing or malformed caller input. Detected
// before any network call; never retried.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid field: %s", e.Field)
}

// ConfigurationError reports absent operator configuration such as backend
// credentials.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return "server misconfiguration: " + e.Detail
}

// UpstreamSubmitError reports a non-2xx response to a job submission. It
// carries the provider's status and message for diagnostics.
type UpstreamSubmitError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamSubmitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generation submit failed: %s (http %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("generation submit failed: http %d", e.StatusCode)
}

// UpstreamJobFailedError reports a job that reached a failed or canceled
// terminal state, or a succeeded job with no output reference.
type UpstreamJobFailedError struct {
	Status  JobStatus
	Message string
}

func (e *UpstreamJobFailedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generation job %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("generation job %s", e.Status)
}

// UpstreamTimeoutError reports a job that did not reach a terminal state
// within the polling ceiling. The in-flight job is abandoned, not canceled.
type UpstreamTimeoutError struct {
	Elapsed time.Duration
}

func (e *UpstreamTimeoutError) Error() string {
	return fmt.Sprintf("generation timed out after %s", e.Elapsed.Round(time.Second))
}
