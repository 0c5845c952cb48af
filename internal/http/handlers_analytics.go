package http

import (
	"net/http"

	flog "fluxo/internal/log"
)

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	names, err := s.analytics.Entities(r.Context())
	if err != nil {
		s.writeError(w, r, flog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entities": names})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.analytics.Overview(r.Context())
	if err != nil {
		s.writeError(w, r, flog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseDashboardQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, flog.OpDashboard, err)
		return
	}
	d, err := s.analytics.Dashboard(r.Context(), q)
	if err != nil {
		s.writeError(w, r, flog.OpDashboard, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseCompareQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, flog.OpCompare, err)
		return
	}
	c, err := s.analytics.Compare(r.Context(), q)
	if err != nil {
		s.writeError(w, r, flog.OpCompare, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleForecast answers 422 with an advisory when the history window is empty.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseForecastQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, flog.OpForecast, err)
		return
	}
	f, err := s.analytics.Forecast(r.Context(), q)
	if err != nil {
		s.writeError(w, r, flog.OpForecast, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}
