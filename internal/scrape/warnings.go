package scrape

// WarningAggregator collects non-fatal problems observed during any attempt
// of one logical request. It is append-only: a warning raised on attempt 0
// stays in the final response even if a later attempt succeeds.
//
// One aggregator belongs to exactly one request and is not safe for
// cross-request reuse.
type WarningAggregator struct {
	clock    Clock
	warnings []Warning
}

// NewWarningAggregator builds an empty aggregator for a single request.
func NewWarningAggregator(clock Clock) *WarningAggregator {
	return &WarningAggregator{clock: clock}
}

// Add appends one warning.
func (a *WarningAggregator) Add(message string, severity Severity, reqCtx RequestContext, affectedItems []string, impact string) {
	items := make([]string, len(affectedItems))
	copy(items, affectedItems)
	a.warnings = append(a.warnings, Warning{
		Message:           message,
		Severity:          severity,
		Context:           reqCtx,
		AffectedItems:     items,
		ImpactDescription: impact,
		Timestamp:         a.clock.Now(),
	})
}

// Warnings returns the accumulated warnings in raised order.
func (a *WarningAggregator) Warnings() []Warning {
	out := make([]Warning, len(a.warnings))
	copy(out, a.warnings)
	return out
}

// Messages returns only the user-facing message strings.
func (a *WarningAggregator) Messages() []string {
	out := make([]string, len(a.warnings))
	for i, w := range a.warnings {
		out[i] = w.Message
	}
	return out
}

// Summary returns warning counts grouped by severity.
func (a *WarningAggregator) Summary() map[Severity]int {
	summary := make(map[Severity]int, 3)
	for _, w := range a.warnings {
		summary[w.Severity]++
	}
	return summary
}

// Count reports how many warnings have been raised so far.
func (a *WarningAggregator) Count() int {
	return len(a.warnings)
}
