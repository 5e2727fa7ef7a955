package scrape

import (
	"math"
	"time"
)

// MetricsTracker records one AttemptMetric per fetch/extract attempt and
// derives request-level aggregates on demand. Like the warning aggregator it
// is request-local: one instance per logical request, discarded afterwards.
type MetricsTracker struct {
	clock    Clock
	start    time.Time
	attempts []AttemptMetric
}

// NewMetricsTracker builds a tracker for a single request.
func NewMetricsTracker(clock Clock) *MetricsTracker {
	return &MetricsTracker{clock: clock}
}

// StartRequest records the wall-clock start of the logical request.
func (t *MetricsTracker) StartRequest() {
	t.start = t.clock.Now()
}

// AddAttempt appends one attempt metric.
func (t *MetricsTracker) AddAttempt(metric AttemptMetric) {
	t.attempts = append(t.attempts, metric)
}

// Attempts returns the recorded metrics in attempt order.
func (t *MetricsTracker) Attempts() []AttemptMetric {
	out := make([]AttemptMetric, len(t.attempts))
	copy(out, t.attempts)
	return out
}

// RequestMetrics computes the current snapshot. It is recomputed on every
// call rather than cached.
//
// With zero attempts the success rate reports 100: no evidence of failure
// yet, and no division by zero.
func (t *MetricsTracker) RequestMetrics() RequestMetrics {
	total := len(t.attempts)

	successRate := 100.0
	if total > 0 {
		successes := 0
		for _, m := range t.attempts {
			if m.Success {
				successes++
			}
		}
		successRate = float64(successes) / float64(total) * 100
	}

	var avgPageTime float64
	if total > 0 {
		var sum time.Duration
		for _, m := range t.attempts {
			sum += m.Duration()
		}
		avgPageTime = sum.Seconds() / float64(total)
	}

	var elapsed float64
	if !t.start.IsZero() {
		elapsed = t.clock.Now().Sub(t.start).Seconds()
	}

	warnings := 0
	if total > 0 {
		// Each metric carries the running warning count at the time it was
		// recorded; the last one therefore holds the request total.
		warnings = t.attempts[total-1].WarningCount
	}

	return RequestMetrics{
		TotalTime:       round(elapsed, 3),
		SuccessRate:     round(successRate, 2),
		AveragePageTime: round(avgPageTime, 3),
		TotalPages:      total,
		TotalWarnings:   warnings,
	}
}

func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
