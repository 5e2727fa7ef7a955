// Package auto combines the plain HTTP fetcher with the headless browser:
// pages are fetched cheaply first and re-fetched in a real browser only when
// the promotion heuristic flags the response.
package auto

import (
	"context"

	"go.uber.org/zap"

	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/scrape"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/telemetry"
)

// Detector flags documents that need a headless re-fetch.
type Detector interface {
	ShouldPromote(doc scrape.Document) bool
}

// Fetcher implements scrape.Fetcher by chaining a primary fetcher with a
// headless fallback.
type Fetcher struct {
	primary  scrape.Fetcher
	fallback scrape.Fetcher
	detector Detector
	logger   *zap.Logger
}

// New builds the chained fetcher.
func New(primary, fallback scrape.Fetcher, detector Detector, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		primary:  primary,
		fallback: fallback,
		detector: detector,
		logger:   logger,
	}
}

// Fetch retrieves the document, promoting to the headless fetcher when the
// plain response looks blocked or client-rendered. Fetch errors from the
// primary are returned as-is; the fallback only runs on flagged successes.
func (f *Fetcher) Fetch(ctx context.Context, url string) (scrape.Document, error) {
	doc, err := f.primary.Fetch(ctx, url)
	if err != nil {
		return scrape.Document{}, err
	}
	if f.detector == nil || !f.detector.ShouldPromote(doc) {
		return doc, nil
	}

	f.logger.Info("promoting fetch to headless browser",
		zap.String("url", url),
		zap.Int("body_bytes", len(doc.Body)),
	)
	telemetry.ObservePromotion()

	promoted, err := f.fallback.Fetch(ctx, url)
	if err != nil {
		// The plain document was flagged, not broken; extraction can still
		// try it when the browser fails too.
		f.logger.Warn("headless promotion failed, using plain document",
			zap.String("url", url),
			zap.Error(err),
		)
		return doc, nil
	}
	return promoted, nil
}
