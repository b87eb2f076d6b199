package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const queryTimeout = 7 * time.Second

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	year := parseYearParam(r.URL.Query())
	overview, err := s.api.Overview(ctx, year)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get fines overview", "error", err, "year", year)
		writeFetchFailure(w)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleByYear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	years, err := s.api.FinesByYear(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get fines by year", "error", err)
		writeFetchFailure(w)
		return
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleByCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	cats, err := s.api.FinesByCategory(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get fines by category", "error", err)
		writeFetchFailure(w)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleBySector(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	sectors, err := s.api.FinesBySector(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get fines by sector", "error", err)
		writeFetchFailure(w)
		return
	}
	writeJSON(w, http.StatusOK, sectors)
}

func (s *Server) handleTopFirms(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	limit := parseIntParam(r.URL.Query(), "limit", 20)
	firms, err := s.api.TopFirms(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get top firms", "error", err, "limit", limit)
		writeFetchFailure(w)
		return
	}
	writeJSON(w, http.StatusOK, firms)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	query := r.URL.Query()
	period := query.Get("period")
	if period == "" {
		period = "month"
	}
	year := parseYearParam(query)
	limit := parseIntParam(query, "limit", 12)

	points, err := s.api.Trend(ctx, period, year, limit)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get trend", "error", err, "period", period, "year", year)
		writeFetchFailure(w)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleFirmDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	slug := r.PathValue("slug")
	limit := parseIntParam(r.URL.Query(), "limit", 100)

	details, err := s.api.FirmDetails(ctx, slug, limit)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get firm details", "error", err, "slug", slug)
		writeFetchFailure(w)
		return
	}
	if details == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleBreachDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	slug := r.PathValue("slug")
	query := r.URL.Query()
	limitPenalties := parseIntParam(query, "penalties", 10)
	limitFirms := parseIntParam(query, "firms", 10)

	details, err := s.api.BreachDetails(ctx, slug, limitPenalties, limitFirms)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get breach details", "error", err, "slug", slug)
		writeFetchFailure(w)
		return
	}
	if details == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleSectorDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	slug := r.PathValue("slug")
	query := r.URL.Query()
	limitPenalties := parseIntParam(query, "penalties", 10)
	limitBreaches := parseIntParam(query, "breaches", 10)

	details, err := s.api.SectorDetails(ctx, slug, limitPenalties, limitBreaches)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to get sector details", "error", err, "slug", slug)
		writeFetchFailure(w)
		return
	}
	if details == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, details)
}
