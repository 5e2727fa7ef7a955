package scrape

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/telemetry"
)

// PipelineConfig controls Pipeline behavior.
type PipelineConfig struct {
	// BaseURL is the listing page prefix; the listing ID is appended to it.
	BaseURL string
	// MaxRetries bounds retries per request: attempts run 0..MaxRetries
	// inclusive, so MaxRetries=2 means at most 3 tries.
	MaxRetries int
	// BackoffUnit is the time unit of the 2^k backoff schedule. Production
	// uses one second; tests shrink it.
	BackoffUnit time.Duration
}

const defaultBaseURL = "https://www.kleinanzeigen.de/s-anzeige/"

// Pipeline drives the fetch-and-extract loop for a single listing: up to
// N+1 attempts, error classification after each failure, warning and metric
// accumulation across attempts, and response assembly.
//
// A Pipeline is safe for concurrent use: all mutable request state (warning
// aggregator, metrics tracker) is created inside Run.
type Pipeline struct {
	fetcher   Fetcher
	extractor Extractor
	clock     Clock
	idGen     IDGenerator
	cfg       PipelineConfig
	logger    *zap.Logger

	// Injectable for tests; defaults sleep on the context and draw uniform
	// jitter in [0, BackoffUnit).
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

// NewPipeline constructs a Pipeline.
func NewPipeline(fetcher Fetcher, extractor Extractor, clock Clock, idGen IDGenerator, cfg PipelineConfig, logger *zap.Logger) *Pipeline {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		clock:     clock,
		idGen:     idGen,
		cfg:       cfg,
		logger:    logger,
	}
	p.sleep = sleepCtx
	p.jitter = func() time.Duration { return randomJitter(p.cfg.BackoffUnit) }
	return p
}

// ListingURL builds the target URL for a listing ID.
func (p *Pipeline) ListingURL(listingID string) string {
	return p.cfg.BaseURL + listingID
}

// Run executes the pipeline with the configured retry budget.
func (p *Pipeline) Run(ctx context.Context, listingID string) Response {
	return p.RunWithRetries(ctx, listingID, p.cfg.MaxRetries)
}

// RunWithRetries executes up to maxRetries+1 attempts of fetch+extract and
// always returns a well-formed Response; attempt failures never escape as
// errors.
func (p *Pipeline) RunWithRetries(ctx context.Context, listingID string, maxRetries int) Response {
	if maxRetries < 0 {
		maxRetries = 0
	}
	url := p.ListingURL(listingID)
	reqCtx := RequestContext{
		Operation: "fetch_listing_details",
		ListingID: listingID,
		URL:       url,
	}
	if p.idGen != nil {
		if id, err := p.idGen.NewID(); err == nil {
			reqCtx.RequestID = id
		}
	}
	logger := p.logger.With(
		zap.String("listing_id", listingID),
		zap.String("request_id", reqCtx.RequestID),
	)

	warnings := NewWarningAggregator(p.clock)
	tracker := NewMetricsTracker(p.clock)
	tracker.StartRequest()
	requestStart := p.clock.Now()

	var lastErr *StructuredError

	for attempt := 0; attempt <= maxRetries; attempt++ {
		reqCtx.RetryAttempt = attempt
		start := p.clock.Now()

		record, err := p.attempt(ctx, url)
		if err == nil {
			if record.ID == "" {
				warnings.Add(
					fmt.Sprintf("Incomplete data extracted for listing %s", listingID),
					SeverityMedium,
					reqCtx,
					[]string{listingID},
					"Some listing information may be missing",
				)
			}
			tracker.AddAttempt(AttemptMetric{
				PageNumber:   1,
				URL:          url,
				StartTime:    start,
				EndTime:      p.clock.Now(),
				Success:      true,
				RetryCount:   attempt,
				ResultsCount: 1,
				WarningCount: warnings.Count(),
			})
			telemetry.ObserveAttempt(true, "")
			telemetry.ObserveRequest(true, p.clock.Now().Sub(requestStart))
			logger.Info("listing fetched",
				zap.Int("attempts", attempt+1),
				zap.Int("warnings", warnings.Count()),
			)
			return p.successResponse(&record, tracker, warnings)
		}

		structured := Classify(err, reqCtx, logger)
		lastErr = structured
		telemetry.ObserveAttempt(false, string(structured.Category))

		retrying := attempt < maxRetries && structured.ShouldRetry(attempt, maxRetries)

		errMsg := structured.Message
		if !retrying {
			errMsg = fmt.Sprintf("Failed after %d attempts: %s", attempt+1, structured.Message)
		}
		tracker.AddAttempt(AttemptMetric{
			PageNumber:    1,
			URL:           url,
			StartTime:     start,
			EndTime:       p.clock.Now(),
			Success:       false,
			RetryCount:    attempt,
			ErrorMessage:  errMsg,
			ErrorCategory: structured.Category,
			ResultsCount:  0,
			WarningCount:  warnings.Count(),
		})

		if !retrying {
			break
		}

		warnings.Add(
			fmt.Sprintf("Retrying listing %s after %s error (attempt %d/%d)",
				listingID, structured.Category, attempt+1, maxRetries+1),
			SeverityMedium,
			reqCtx,
			[]string{listingID},
			fmt.Sprintf("Temporary delay before retry due to %s error", structured.Category),
		)
		telemetry.ObserveRetry()

		wait := p.backoff(attempt)
		logger.Warn("attempt failed, backing off",
			zap.Int("attempt", attempt),
			zap.String("category", string(structured.Category)),
			zap.Duration("wait", wait),
		)
		if err := p.sleep(ctx, wait); err != nil {
			// Caller gave up while we were waiting; stop retrying and
			// surface the last classified failure.
			logger.Warn("backoff canceled", zap.Error(err))
			break
		}
	}

	telemetry.ObserveRequest(false, p.clock.Now().Sub(requestStart))

	if lastErr == nil {
		// The loop above always classifies at least one failure before
		// reaching this point; hitting it means a programming defect.
		logger.Error("retry loop exited without an outcome")
		return p.internalErrorResponse(tracker, warnings)
	}

	logger.Error("listing fetch failed",
		zap.String("category", string(lastErr.Category)),
		zap.String("error", lastErr.Message),
	)
	return p.failureResponse(lastErr, tracker, warnings)
}

func (p *Pipeline) attempt(ctx context.Context, url string) (ListingRecord, error) {
	doc, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		return ListingRecord{}, err
	}
	record, problems, err := p.extractor.Extract(doc)
	if err != nil {
		return ListingRecord{}, err
	}
	if len(problems) > 0 {
		p.logger.Debug("extraction reported field problems",
			zap.String("url", url),
			zap.Strings("problems", problems),
		)
	}
	return record, nil
}

// backoff returns the wait before the attempt following failed attempt k:
// 2^k backoff units plus uniform jitter in [0, 1) units, so synchronized
// retry storms against the source are avoided.
func (p *Pipeline) backoff(attempt int) time.Duration {
	base := p.cfg.BackoffUnit << uint(attempt)
	return base + p.jitter()
}

func (p *Pipeline) successResponse(record *ListingRecord, tracker *MetricsTracker, warnings *WarningAggregator) Response {
	metrics := tracker.RequestMetrics()
	resp := Response{
		Success:            true,
		TimeTaken:          metrics.TotalTime,
		Data:               record,
		PerformanceMetrics: &metrics,
	}
	attachWarnings(&resp, warnings, true)
	return resp
}

func (p *Pipeline) failureResponse(structured *StructuredError, tracker *MetricsTracker, warnings *WarningAggregator) Response {
	metrics := tracker.RequestMetrics()
	resp := Response{
		Success:             false,
		TimeTaken:           metrics.TotalTime,
		Data:                nil,
		PerformanceMetrics:  &metrics,
		Error:               structured.Message,
		ErrorCategory:       structured.Category,
		ErrorSeverity:       structured.Severity,
		RecoverySuggestions: structured.RecoverySuggestions,
	}
	attachWarnings(&resp, warnings, false)
	return resp
}

func (p *Pipeline) internalErrorResponse(tracker *MetricsTracker, warnings *WarningAggregator) Response {
	metrics := tracker.RequestMetrics()
	resp := Response{
		Success:             false,
		TimeTaken:           metrics.TotalTime,
		PerformanceMetrics:  &metrics,
		Error:               "Unexpected error in retry loop",
		ErrorCategory:       CategoryUnknown,
		ErrorSeverity:       SeverityHigh,
		RecoverySuggestions: recoverySuggestions[CategoryUnknown],
	}
	attachWarnings(&resp, warnings, false)
	return resp
}

func attachWarnings(resp *Response, warnings *WarningAggregator, includeSummary bool) {
	if warnings.Count() == 0 {
		return
	}
	resp.Warnings = warnings.Messages()
	resp.DetailedWarnings = warnings.Warnings()
	if includeSummary {
		resp.WarningSummary = warnings.Summary()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

// NormalizeListingID trims surrounding whitespace; an empty result means the
// caller supplied no usable ID and should be rejected before the pipeline.
func NormalizeListingID(raw string) string {
	return strings.TrimSpace(raw)
}
