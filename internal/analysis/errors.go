package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingInput is returned when a required text input is empty.
	ErrMissingInput = errors.New("missing input")
	// ErrScrapingDisabled is returned for URL inputs when no scraper is configured.
	ErrScrapingDisabled = errors.New("job scraping is not configured")
)

// CompletionError wraps a failed model call.
type CompletionError struct {
	Operation string
	Cause     error
}

func (e *CompletionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("completion for %s failed: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("completion for %s failed", e.Operation)
}

func (e *CompletionError) Unwrap() error {
	return e.Cause
}

func missing(what string) error {
	return fmt.Errorf("%w: %s is required", ErrMissingInput, what)
}
