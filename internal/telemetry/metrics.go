// Package telemetry exposes Prometheus collectors for the listing service.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScrapeRequestsTotal tracks completed logical requests, labeled by outcome.
	ScrapeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_requests_total",
		Help: "Total number of listing requests processed, labeled by outcome.",
	}, []string{"outcome"})

	// ScrapeAttemptsTotal tracks individual fetch/extract attempts.
	ScrapeAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_attempts_total",
		Help: "Total number of fetch attempts, labeled by result.",
	}, []string{"result"})

	// ScrapeAttemptErrorsTotal tracks failed attempts by error category.
	ScrapeAttemptErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_attempt_errors_total",
		Help: "Total number of failed fetch attempts, labeled by error category.",
	}, []string{"category"})

	// ScrapeRetriesTotal tracks backoff-and-retry transitions.
	ScrapeRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrape_retries_total",
		Help: "Total number of retries performed after retryable failures.",
	})

	// ScrapePromotionsTotal tracks fetches escalated to the headless browser.
	ScrapePromotionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scrape_promotions_total",
		Help: "Total number of fetches promoted to the headless browser.",
	})

	// ScrapeRequestDurationSeconds observes end-to-end request latency.
	ScrapeRequestDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scrape_request_duration_seconds",
		Help:    "Histogram of end-to-end listing request latencies.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests, labeled by method and code.",
	}, []string{"method", "code"})

	httpRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Histogram of HTTP request latencies, labeled by method and route.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"method", "route"})
)

// ObserveRequest records one completed logical request.
func ObserveRequest(success bool, duration time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	ScrapeRequestsTotal.WithLabelValues(outcome).Inc()
	ScrapeRequestDurationSeconds.Observe(duration.Seconds())
}

// ObserveAttempt records one fetch/extract attempt.
func ObserveAttempt(success bool, category string) {
	result := "failure"
	if success {
		result = "success"
	}
	ScrapeAttemptsTotal.WithLabelValues(result).Inc()
	if !success && category != "" {
		ScrapeAttemptErrorsTotal.WithLabelValues(category).Inc()
	}
}

// ObserveRetry records one backoff-and-retry transition.
func ObserveRetry() {
	ScrapeRetriesTotal.Inc()
}

// ObservePromotion records one escalation to the headless fetcher.
func ObservePromotion() {
	ScrapePromotionsTotal.Inc()
}
