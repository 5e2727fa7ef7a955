package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveAttemptCountsByResult(t *testing.T) {
	beforeSuccess := testutil.ToFloat64(ScrapeAttemptsTotal.WithLabelValues("success"))
	beforeFailure := testutil.ToFloat64(ScrapeAttemptsTotal.WithLabelValues("failure"))
	beforeTimeout := testutil.ToFloat64(ScrapeAttemptErrorsTotal.WithLabelValues("TIMEOUT"))

	ObserveAttempt(true, "")
	ObserveAttempt(false, "TIMEOUT")

	require.Equal(t, beforeSuccess+1, testutil.ToFloat64(ScrapeAttemptsTotal.WithLabelValues("success")))
	require.Equal(t, beforeFailure+1, testutil.ToFloat64(ScrapeAttemptsTotal.WithLabelValues("failure")))
	require.Equal(t, beforeTimeout+1, testutil.ToFloat64(ScrapeAttemptErrorsTotal.WithLabelValues("TIMEOUT")))
}

func TestObserveRequestCountsOutcome(t *testing.T) {
	before := testutil.ToFloat64(ScrapeRequestsTotal.WithLabelValues("failure"))
	ObserveRequest(false, 120*time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(ScrapeRequestsTotal.WithLabelValues("failure")))
}

func TestObserveRetryAndPromotion(t *testing.T) {
	retries := testutil.ToFloat64(ScrapeRetriesTotal)
	promotions := testutil.ToFloat64(ScrapePromotionsTotal)

	ObserveRetry()
	ObservePromotion()

	require.Equal(t, retries+1, testutil.ToFloat64(ScrapeRetriesTotal))
	require.Equal(t, promotions+1, testutil.ToFloat64(ScrapePromotionsTotal))
}

func TestMiddlewareRecordsRequests(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "404"))

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/inserat/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inserat/1", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "404")))
}
