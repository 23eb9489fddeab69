package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/biblio/internal/service"
)

// AnalyticsHandler serves the admin reporting endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	logger    zerolog.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    logger.With().Str("handler", "analytics").Logger(),
	}
}

// RegisterRoutes mounts the analytics endpoints.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/most-borrowed-books", h.handleMostBorrowedBooks)
		r.Get("/most-active-members", h.handleMostActiveMembers)
		r.Get("/book-availability", h.handleBookAvailability)
		r.Get("/genre-stats", h.handleGenreStats)
		r.Get("/library-stats", h.handleLibraryStats)
	})
}

func reportLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}

func (h *AnalyticsHandler) handleMostBorrowedBooks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.analytics.MostBorrowedBooks(r.Context(), reportLimit(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeList(w, len(rows), rows)
}

func (h *AnalyticsHandler) handleMostActiveMembers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.analytics.MostActiveMembers(r.Context(), reportLimit(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeList(w, len(rows), rows)
}

func (h *AnalyticsHandler) handleBookAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	report, err := h.analytics.BookAvailabilityReport(r.Context(), service.AvailabilityReportInput{
		Genre:  q.Get("genre"),
		Author: q.Get("author"),
		Search: q.Get("search"),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	count := len(report.Books)
	writeJSON(w, http.StatusOK, response{
		Success: true,
		Count:   &count,
		Data:    report.Books,
		Summary: report.Summary,
	})
}

func (h *AnalyticsHandler) handleGenreStats(w http.ResponseWriter, r *http.Request) {
	rows, err := h.analytics.GenreStats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeList(w, len(rows), rows)
}

func (h *AnalyticsHandler) handleLibraryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.analytics.GetLibraryStats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}
