package scrape

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		category  ErrorCategory
		severity  Severity
		retryable bool
	}{
		{
			name:      "client status is medium and final",
			err:       &HTTPStatusError{StatusCode: 404, URL: "u"},
			category:  CategoryHTTPStatus,
			severity:  SeverityMedium,
			retryable: false,
		},
		{
			name:      "server status is high and retryable",
			err:       &HTTPStatusError{StatusCode: 503, URL: "u"},
			category:  CategoryHTTPStatus,
			severity:  SeverityHigh,
			retryable: true,
		},
		{
			name:      "too many requests is retryable",
			err:       &HTTPStatusError{StatusCode: 429, URL: "u"},
			category:  CategoryHTTPStatus,
			severity:  SeverityMedium,
			retryable: true,
		},
		{
			name:      "context deadline",
			err:       context.DeadlineExceeded,
			category:  CategoryTimeout,
			severity:  SeverityMedium,
			retryable: true,
		},
		{
			name:      "net timeout interface",
			err:       timeoutErr{},
			category:  CategoryTimeout,
			severity:  SeverityMedium,
			retryable: true,
		},
		{
			name:      "dns failure",
			err:       &net.DNSError{Err: "no such host", Name: "example.test"},
			category:  CategoryNetwork,
			severity:  SeverityMedium,
			retryable: true,
		},
		{
			name:      "connection refused",
			err:       syscall.ECONNREFUSED,
			category:  CategoryNetwork,
			severity:  SeverityMedium,
			retryable: true,
		},
		{
			name:      "wrapped op error",
			err:       &net.OpError{Op: "dial", Err: errors.New("refused")},
			category:  CategoryNetwork,
			severity:  SeverityMedium,
			retryable: true,
		},
		{
			name:      "extraction failure",
			err:       &ExtractError{Reason: "empty document body"},
			category:  CategoryParsing,
			severity:  SeverityHigh,
			retryable: false,
		},
		{
			name:      "anything else",
			err:       errors.New("boom"),
			category:  CategoryUnknown,
			severity:  SeverityHigh,
			retryable: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			se := Classify(tt.err, RequestContext{ListingID: "1"}, zap.NewNop())
			require.Equal(t, tt.category, se.Category)
			require.Equal(t, tt.severity, se.Severity)
			require.Equal(t, tt.retryable, se.Retryable())
			require.NotEmpty(t, se.Message)
			require.NotEmpty(t, se.RecoverySuggestions)
			require.ErrorIs(t, se, tt.err)
		})
	}
}

func TestClassifyTimeoutBeatsNetwork(t *testing.T) {
	t.Parallel()

	// An OpError that also reports Timeout() must classify as TIMEOUT.
	err := &net.OpError{Op: "read", Err: timeoutErr{}}
	se := Classify(err, RequestContext{}, zap.NewNop())
	require.Equal(t, CategoryTimeout, se.Category)
}

func TestStructuredErrorShouldRetry(t *testing.T) {
	t.Parallel()

	retryable := classify(&HTTPStatusError{StatusCode: 503, URL: "u"})
	require.True(t, retryable.ShouldRetry(0, 2))
	require.True(t, retryable.ShouldRetry(1, 2))
	require.False(t, retryable.ShouldRetry(2, 2))

	final := classify(&HTTPStatusError{StatusCode: 404, URL: "u"})
	require.False(t, final.ShouldRetry(0, 2))
}
