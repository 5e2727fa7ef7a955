package scrape

import (
	"context"
	"time"
)

// Fetcher retrieves one listing page. Implementations must be safe for
// concurrent use by independent requests; the pooled transport is the only
// process-wide shared resource in the pipeline.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Document, error)
}

// Extractor converts a fetched document into a ListingRecord plus a list of
// field-level problems. Missing optional fields are never errors; only
// structurally broken input yields a non-nil error.
type Extractor interface {
	Extract(doc Document) (ListingRecord, []string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces request IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
