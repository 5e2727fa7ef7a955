// Package detector decides when a plain HTTP fetch needs to be promoted to
// the headless browser fetcher.
package detector

import (
	"bytes"
	"strings"

	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/scrape"
)

// Heuristic implements a handful of rule-based promotions: pages that came
// back empty, script-dominated shells that render client-side, and the
// Kleinanzeigen bot wall.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a new detector.
func NewHeuristic(threshold int) *Heuristic {
	if threshold == 0 {
		threshold = 2048
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

var blockMarkers = [][]byte{
	[]byte("captcha"),
	[]byte("Zugriff verweigert"),
	[]byte("Sicherheitsabfrage"),
	[]byte("cf-browser-verification"),
	[]byte("id=\"root\""),
	[]byte("id=\"app\""),
}

// ShouldPromote decides whether the document needs a headless re-fetch.
func (h *Heuristic) ShouldPromote(doc scrape.Document) bool {
	if doc.StatusCode != 200 {
		return false
	}
	body := doc.Body
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if len(body) < h.BodyLengthThreshold && scriptDensityHigh(body) {
		return true
	}
	for _, marker := range blockMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	scriptCoverage := 0
	searchPos := 0

	for {
		relativeStart := strings.Index(lower[searchPos:], openTag)
		if relativeStart == -1 {
			break
		}
		start := searchPos + relativeStart

		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			// Treat the rest of the document as part of the malformed script.
			scriptCoverage += total - start
			break
		}
		contentStart := start + tagClose + 1

		relativeEnd := strings.Index(lower[contentStart:], closeTag)
		var nextSearch int
		if relativeEnd == -1 {
			// Script tag never closes; count the rest.
			nextSearch = total
		} else {
			nextSearch = contentStart + relativeEnd + len(closeTag)
		}

		scriptCoverage += nextSearch - start
		searchPos = nextSearch
	}

	if scriptCoverage == 0 {
		return false
	}
	return scriptCoverage*100/total >= 25
}
