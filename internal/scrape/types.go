// Package scrape defines core types shared across the listing pipeline.
package scrape

import (
	"bytes"
	"encoding/json"
	"time"
)

// Severity ranks how much a warning or error impacts the caller.
type Severity string

// Severity values carried on warnings and structured errors.
const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// ErrorCategory classifies a failed fetch/extract attempt.
type ErrorCategory string

// Error categories assigned by Classify.
const (
	CategoryHTTPStatus ErrorCategory = "HTTP_STATUS"
	CategoryTimeout    ErrorCategory = "TIMEOUT"
	CategoryNetwork    ErrorCategory = "NETWORK"
	CategoryParsing    ErrorCategory = "PARSING"
	CategoryUnknown    ErrorCategory = "UNKNOWN"
)

// DeliveryMode describes how the item changes hands.
type DeliveryMode string

// Delivery modes recognised on a listing page.
const (
	DeliveryPickup   DeliveryMode = "pickup"
	DeliveryShipping DeliveryMode = "shipping"
	DeliveryUnknown  DeliveryMode = "unknown"
)

// Price is the parsed asking price of a listing.
type Price struct {
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	Negotiable bool   `json:"negotiable"`
}

// Location is the seller-declared pickup location.
type Location struct {
	Zip   string `json:"zip"`
	City  string `json:"city"`
	State string `json:"state"`
}

// Seller summarises the account behind a listing.
type Seller struct {
	Name   string   `json:"name"`
	Since  string   `json:"since"`
	Type   string   `json:"type"`
	Badges []string `json:"badges"`
}

// ExtraInfo carries secondary page metadata.
type ExtraInfo struct {
	CreatedAt string `json:"created_at"`
	Views     string `json:"views"`
}

// Detail is one label/value row from the listing detail table.
type Detail struct {
	Label string
	Value string
}

// Details preserves the page order of detail rows while still
// serialising as a JSON object, matching the API contract.
type Details []Detail

// MarshalJSON renders the details as an object in insertion order.
func (d Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		label, err := json.Marshal(item.Label)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(item.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(label)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the object form. Key order within one row set is
// whatever the decoder yields; only marshalling guarantees page order.
func (d *Details) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // opening brace
		return err
	}
	out := Details{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return err
		}
		key, _ := keyTok.(string)
		out = append(out, Detail{Label: key, Value: value})
	}
	*d = out
	return nil
}

// ListingRecord is the structured payload extracted from one listing page.
// Every field except ID may legitimately be empty; emptiness means "not
// present on the page", never "not yet fetched".
type ListingRecord struct {
	ID          string       `json:"id"`
	Categories  []string     `json:"categories"`
	Title       string       `json:"title"`
	Status      string       `json:"status"`
	Price       Price        `json:"price"`
	Delivery    DeliveryMode `json:"delivery"`
	Location    Location     `json:"location"`
	Views       string       `json:"views"`
	Description string       `json:"description"`
	Images      []string     `json:"images"`
	Details     Details      `json:"details"`
	Features    []string     `json:"features"`
	Seller      Seller       `json:"seller"`
	ExtraInfo   ExtraInfo    `json:"extra_info"`
}

// NewListingRecord returns a record with all collection fields initialised
// so absent data serialises as empty values, not null.
func NewListingRecord() ListingRecord {
	return ListingRecord{
		Categories: []string{},
		Status:     "active",
		Price:      Price{Amount: "0", Currency: "€"},
		Delivery:   DeliveryUnknown,
		Views:      "0",
		Images:     []string{},
		Details:    Details{},
		Features:   []string{},
		Seller:     Seller{Type: "private", Badges: []string{}},
		ExtraInfo:  ExtraInfo{Views: "0"},
	}
}

// AttemptMetric records one fetch+extract attempt within a logical request.
type AttemptMetric struct {
	PageNumber    int           `json:"page_number"`
	URL           string        `json:"url"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Success       bool          `json:"success"`
	RetryCount    int           `json:"retry_count"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	ErrorCategory ErrorCategory `json:"error_category,omitempty"`
	ResultsCount  int           `json:"results_count"`
	WarningCount  int           `json:"warning_count"`
}

// Duration returns the wall time the attempt took.
func (m AttemptMetric) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// RequestMetrics aggregates all attempts of one logical request.
// It is derived on demand by the Tracker and never mutated directly.
type RequestMetrics struct {
	TotalTime       float64 `json:"total_time"`
	SuccessRate     float64 `json:"success_rate"`
	AveragePageTime float64 `json:"average_page_time"`
	TotalPages      int     `json:"total_pages"`
	TotalWarnings   int     `json:"total_warnings"`
}

// RequestContext identifies the logical request a warning or error belongs to.
type RequestContext struct {
	Operation    string `json:"operation"`
	ListingID    string `json:"listing_id"`
	URL          string `json:"url"`
	RequestID    string `json:"request_id"`
	RetryAttempt int    `json:"retry_attempt"`
}

// Warning is a non-fatal problem observed during any attempt of a request.
type Warning struct {
	Message           string         `json:"message"`
	Severity          Severity       `json:"severity"`
	Context           RequestContext `json:"context"`
	AffectedItems     []string       `json:"affected_items"`
	ImpactDescription string         `json:"impact_description"`
	Timestamp         time.Time      `json:"timestamp"`
}

// Document is a fetched listing page handed to the Extractor.
type Document struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Response is the JSON-serialisable result of one pipeline run.
type Response struct {
	Success             bool             `json:"success"`
	TimeTaken           float64          `json:"time_taken"`
	Data                *ListingRecord   `json:"data"`
	PerformanceMetrics  *RequestMetrics  `json:"performance_metrics,omitempty"`
	Warnings            []string         `json:"warnings,omitempty"`
	DetailedWarnings    []Warning        `json:"detailed_warnings,omitempty"`
	WarningSummary      map[Severity]int `json:"warning_summary,omitempty"`
	Error               string           `json:"error,omitempty"`
	ErrorCategory       ErrorCategory    `json:"error_category,omitempty"`
	ErrorSeverity       Severity         `json:"error_severity,omitempty"`
	RecoverySuggestions []string         `json:"recovery_suggestions,omitempty"`
}
