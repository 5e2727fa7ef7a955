package scrape

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"

	"go.uber.org/zap"
)

// Fixed recovery guidance per category, used verbatim in responses.
var recoverySuggestions = map[ErrorCategory][]string{
	CategoryHTTPStatus: {
		"verify the listing still exists",
		"check whether the source is blocking automated clients",
	},
	CategoryTimeout: {
		"increase timeout",
		"check target server load",
	},
	CategoryNetwork: {
		"check network connectivity",
		"verify DNS resolution for the target host",
	},
	CategoryParsing: {
		"check if the page layout has changed",
		"update the extraction selectors",
	},
	CategoryUnknown: {
		"inspect the logs for the underlying cause",
		"report the failure if it persists",
	},
}

// Classify maps a raised failure into a StructuredError. It is deterministic
// and side-effect-free apart from writing a diagnostic log entry.
func Classify(err error, reqCtx RequestContext, logger *zap.Logger) *StructuredError {
	se := classify(err)
	if logger != nil {
		logger.Debug("classified attempt failure",
			zap.String("listing_id", reqCtx.ListingID),
			zap.String("request_id", reqCtx.RequestID),
			zap.Int("retry_attempt", reqCtx.RetryAttempt),
			zap.String("category", string(se.Category)),
			zap.String("severity", string(se.Severity)),
			zap.Bool("retryable", se.retryable),
			zap.Error(err),
		)
	}
	return se
}

func classify(err error) *StructuredError {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		severity := SeverityMedium
		if statusErr.StatusCode >= 500 {
			severity = SeverityHigh
		}
		return &StructuredError{
			Category:            CategoryHTTPStatus,
			Severity:            severity,
			Message:             statusErr.Error(),
			RecoverySuggestions: recoverySuggestions[CategoryHTTPStatus],
			StatusCode:          statusErr.StatusCode,
			retryable:           statusErr.StatusCode >= 500 || statusErr.StatusCode == 429,
			cause:               err,
		}
	}

	if isTimeout(err) {
		return &StructuredError{
			Category:            CategoryTimeout,
			Severity:            SeverityMedium,
			Message:             err.Error(),
			RecoverySuggestions: recoverySuggestions[CategoryTimeout],
			retryable:           true,
			cause:               err,
		}
	}

	if isNetwork(err) {
		return &StructuredError{
			Category:            CategoryNetwork,
			Severity:            SeverityMedium,
			Message:             err.Error(),
			RecoverySuggestions: recoverySuggestions[CategoryNetwork],
			retryable:           true,
			cause:               err,
		}
	}

	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return &StructuredError{
			Category:            CategoryParsing,
			Severity:            SeverityHigh,
			Message:             extractErr.Error(),
			RecoverySuggestions: recoverySuggestions[CategoryParsing],
			retryable:           false,
			cause:               err,
		}
	}

	return &StructuredError{
		Category:            CategoryUnknown,
		Severity:            SeverityHigh,
		Message:             err.Error(),
		RecoverySuggestions: recoverySuggestions[CategoryUnknown],
		retryable:           false,
		cause:               err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetwork(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
