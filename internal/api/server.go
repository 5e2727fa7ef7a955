// Package api exposes the HTTP interface for the listing service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/config"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/scrape"
	"github.com/EvickaStudio/ebay-kleinanzeigen-api/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Runner executes one logical listing request. Satisfied by *scrape.Pipeline.
type Runner interface {
	Run(ctx context.Context, listingID string) scrape.Response
}

// Server wires HTTP handlers to the scrape pipeline.
type Server struct {
	router   chi.Router
	pipeline Runner
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(pipeline Runner, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pipeline: pipeline,
		cfg:      cfg,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(telemetry.Middleware)
	r.Use(timeoutMiddleware(60 * time.Second))
	if cfg.Auth.Enabled {
		r.Use(apiKeyMiddleware(cfg.Auth.APIKey))
	}

	r.Get("/", s.root)
	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	limiter := newClientLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Get("/inserat/{id}", s.getListing)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Welcome to the Kleinanzeigen API",
		"endpoints": []string{"/inserat/{id}"},
		"status":    "operational",
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// listingResponse is the caller-facing shape: the pipeline result trimmed to
// the essential data plus minimal performance metrics.
type listingResponse struct {
	Success            bool                    `json:"success"`
	TimeTaken          float64                 `json:"time_taken"`
	Data               *scrape.ListingRecord   `json:"data"`
	PerformanceMetrics *minimalMetrics         `json:"performance_metrics,omitempty"`
	Warnings           []string                `json:"warnings,omitempty"`
	DetailedWarnings   []scrape.Warning        `json:"detailed_warnings,omitempty"`
	WarningSummary     map[scrape.Severity]int `json:"warning_summary,omitempty"`
}

type minimalMetrics struct {
	SuccessRate float64 `json:"success_rate"`
	TimeTaken   float64 `json:"time_taken"`
}

type errorResponse struct {
	Success             bool                   `json:"success"`
	Error               string                 `json:"error"`
	ErrorCategory       scrape.ErrorCategory   `json:"error_category,omitempty"`
	ErrorSeverity       scrape.Severity        `json:"error_severity,omitempty"`
	RecoverySuggestions []string               `json:"recovery_suggestions,omitempty"`
	Data                *scrape.ListingRecord  `json:"data"`
	TimeTaken           float64                `json:"time_taken,omitempty"`
	PerformanceMetrics  *scrape.RequestMetrics `json:"performance_metrics,omitempty"`
	Warnings            []string               `json:"warnings,omitempty"`
}

func (s *Server) getListing(w http.ResponseWriter, r *http.Request) {
	id := scrape.NormalizeListingID(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "Invalid listing ID")
		return
	}

	resp := s.pipeline.Run(r.Context(), id)

	if !resp.Success {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Success:             false,
			Error:               resp.Error,
			ErrorCategory:       resp.ErrorCategory,
			ErrorSeverity:       resp.ErrorSeverity,
			RecoverySuggestions: resp.RecoverySuggestions,
			Data:                nil,
			TimeTaken:           resp.TimeTaken,
			PerformanceMetrics:  resp.PerformanceMetrics,
			Warnings:            resp.Warnings,
		})
		return
	}

	clean := listingResponse{
		Success:          true,
		TimeTaken:        resp.TimeTaken,
		Data:             resp.Data,
		Warnings:         resp.Warnings,
		DetailedWarnings: resp.DetailedWarnings,
		WarningSummary:   resp.WarningSummary,
	}
	if resp.PerformanceMetrics != nil {
		clean.PerformanceMetrics = &minimalMetrics{
			SuccessRate: resp.PerformanceMetrics.SuccessRate,
			TimeTaken:   resp.PerformanceMetrics.AveragePageTime,
		}
	}
	writeJSON(w, http.StatusOK, clean)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
