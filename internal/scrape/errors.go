package scrape

import "fmt"

// HTTPStatusError is returned by a Fetcher when the source answered with an
// HTTP status >= 400. It carries the status so Classify can scale severity
// and decide retryability.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// ExtractError signals structurally broken input to the Extractor. Retrying
// the fetch would reproduce the same malformed document, so Classify marks
// it non-retryable.
type ExtractError struct {
	Reason string
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract listing: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extract listing: %s", e.Reason)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// StructuredError is the normalised form every attempt failure is converted
// to before it drives a retry decision or becomes the terminal response.
type StructuredError struct {
	Category            ErrorCategory
	Severity            Severity
	Message             string
	RecoverySuggestions []string
	StatusCode          int
	retryable           bool
	cause               error
}

func (e *StructuredError) Error() string {
	return e.Message
}

func (e *StructuredError) Unwrap() error {
	return e.cause
}

// Retryable reports whether the failure category permits another attempt.
func (e *StructuredError) Retryable() bool {
	return e.retryable
}

// ShouldRetry combines the category's retryability with the attempt budget:
// attempt is the 0-based index of the attempt that just failed.
func (e *StructuredError) ShouldRetry(attempt, maxRetries int) bool {
	return e.retryable && attempt < maxRetries
}
