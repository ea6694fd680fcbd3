package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup has nothing to return, e.g. nearest-origin
// resolution before any origin was seeded.
var ErrNotFound = errors.New("not found")

// ExternalAPIError reports a failed third-party call. StatusCode is 0 when the
// request never produced an HTTP response (network failure or timeout).
type ExternalAPIError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *ExternalAPIError) Unwrap() error { return e.Err }

// PipelineError wraps an unexpected internal failure within one orchestrator run.
type PipelineError struct {
	Pipeline string
	Op       string
	Err      error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline %s: %s: %v", e.Pipeline, e.Op, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
