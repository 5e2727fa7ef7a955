package scrape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func attemptAt(clock *fakeClock, success bool, warnings int) AttemptMetric {
	start := clock.Now()
	return AttemptMetric{
		PageNumber:   1,
		URL:          "https://www.kleinanzeigen.de/s-anzeige/1",
		StartTime:    start,
		EndTime:      clock.Now(),
		Success:      success,
		WarningCount: warnings,
	}
}

func TestTrackerZeroAttempts(t *testing.T) {
	t.Parallel()

	tracker := NewMetricsTracker(newFakeClock())
	tracker.StartRequest()

	m := tracker.RequestMetrics()
	require.Equal(t, 100.0, m.SuccessRate)
	require.Equal(t, 0, m.TotalPages)
	require.Equal(t, 0, m.TotalWarnings)
	require.Equal(t, 0.0, m.AveragePageTime)
}

func TestTrackerSuccessRate(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tracker := NewMetricsTracker(clock)
	tracker.StartRequest()
	tracker.AddAttempt(attemptAt(clock, false, 1))
	tracker.AddAttempt(attemptAt(clock, true, 1))

	m := tracker.RequestMetrics()
	require.Equal(t, 50.0, m.SuccessRate)
	require.Equal(t, 2, m.TotalPages)
}

func TestTrackerOneOfThreeRounds(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tracker := NewMetricsTracker(clock)
	tracker.StartRequest()
	tracker.AddAttempt(attemptAt(clock, false, 1))
	tracker.AddAttempt(attemptAt(clock, false, 2))
	tracker.AddAttempt(attemptAt(clock, true, 2))

	m := tracker.RequestMetrics()
	require.Equal(t, 33.33, m.SuccessRate)
	require.Equal(t, 3, m.TotalPages)
	// The last attempt carries the running warning total.
	require.Equal(t, 2, m.TotalWarnings)
}

func TestTrackerAveragePageTime(t *testing.T) {
	t.Parallel()

	// The fake clock ticks 10ms per Now call, so each attempt spans 10ms.
	clock := newFakeClock()
	tracker := NewMetricsTracker(clock)
	tracker.StartRequest()
	tracker.AddAttempt(attemptAt(clock, true, 0))
	tracker.AddAttempt(attemptAt(clock, true, 0))

	m := tracker.RequestMetrics()
	require.Equal(t, 0.01, m.AveragePageTime)
	require.Greater(t, m.TotalTime, 0.0)
}

func TestTrackerAttemptsCopy(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	tracker := NewMetricsTracker(clock)
	tracker.AddAttempt(attemptAt(clock, true, 0))

	got := tracker.Attempts()
	got[0].Success = false
	require.True(t, tracker.Attempts()[0].Success)
}

func TestAttemptMetricDuration(t *testing.T) {
	t.Parallel()

	start := time.Unix(1700000000, 0)
	m := AttemptMetric{StartTime: start, EndTime: start.Add(250 * time.Millisecond)}
	require.Equal(t, 250*time.Millisecond, m.Duration())
}
