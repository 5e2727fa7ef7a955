package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/scrape"
)

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	const body = "<html><body>listing</body></html>"
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "kleinanzeigen-api-test/1.0", Timeout: 5 * time.Second})
	doc, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	require.Equal(t, srv.URL, doc.URL)
	require.Equal(t, http.StatusOK, doc.StatusCode)
	require.Equal(t, body, string(doc.Body))
	require.Greater(t, doc.Duration, time.Duration(0))
	require.Equal(t, "kleinanzeigen-api-test/1.0", gotUA)
}

func TestFetchStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"unavailable", http.StatusServiceUnavailable},
		{"rate limited", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			f := New(Config{Timeout: 5 * time.Second})
			_, err := f.Fetch(context.Background(), srv.URL)
			require.Error(t, err)

			var statusErr *scrape.HTTPStatusError
			require.ErrorAs(t, err, &statusErr)
			require.Equal(t, tt.status, statusErr.StatusCode)
			require.Equal(t, srv.URL, statusErr.URL)
		})
	}
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := New(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetchConnectionRefused(t *testing.T) {
	t.Parallel()

	// A server started and immediately closed leaves a port nothing listens on.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := New(Config{Timeout: 2 * time.Second})
	_, err := f.Fetch(context.Background(), url)
	require.Error(t, err)

	// No HTTP response means no status error; the classifier should see a
	// plain network failure instead.
	var statusErr *scrape.HTTPStatusError
	require.False(t, errors.As(err, &statusErr))
}

func TestFetchDefaultTimeout(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	require.Equal(t, 20*time.Second, f.cfg.Timeout)
}
