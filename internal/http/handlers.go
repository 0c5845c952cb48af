package http

import (
	"context"
	"net/http"
	"time"

	"fluxo/internal/core"
	"fluxo/internal/ledger"
	flog "fluxo/internal/log"
)

type entryResponse struct {
	ID          int64     `json:"id"`
	Date        string    `json:"date"`
	Entity      string    `json:"entity"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Kind        string    `json:"kind"`
	Amount      string    `json:"amount"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

func toEntryResponse(e core.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		Date:        e.Date,
		Entity:      e.Entity,
		Description: e.Description,
		Category:    e.Category,
		Kind:        e.Kind,
		Amount:      e.Amount,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady pings the store when it is backed by an external resource.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	switch {
	case s.reader == nil:
		checks["store"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	default:
		if p, ok := s.reader.(ledger.Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				checks["store"] = "failed: " + err.Error()
				status, httpStatus = "not_ready", http.StatusServiceUnavailable
			} else {
				checks["store"] = "ok"
			}
		} else {
			checks["store"] = "ok"
		}
	}

	if s.analytics != nil {
		if c := s.analytics.EntityCache(); c != nil {
			st := c.Stats()
			checks["entity_cache"] = map[string]any{"entries": c.Size(), "hits": st.Hits, "misses": st.Misses}
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	f, limit, err := s.parseEntryFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, flog.OpList, err)
		return
	}
	entries, err := s.reader.ListEntries(r.Context(), f)
	if err != nil {
		s.writeError(w, r, flog.OpList, err)
		return
	}
	total := len(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": out,
		"total":   total,
	})
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, flog.OpRead, err)
		return
	}
	e, err := s.reader.GetEntry(r.Context(), id)
	if err != nil {
		s.writeError(w, r, flog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(e))
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.decodeEntry(w, r)
	if err != nil {
		s.writeError(w, r, flog.OpCreate, err)
		return
	}
	created, err := s.entries.CreateEntry(r.Context(), e)
	if err != nil {
		s.writeError(w, r, flog.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/entries/"+formatID(created.ID))
	writeJSON(w, http.StatusCreated, toEntryResponse(created))
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, flog.OpUpdate, err)
		return
	}
	e, err := s.decodeEntry(w, r)
	if err != nil {
		s.writeError(w, r, flog.OpUpdate, err)
		return
	}
	updated, err := s.entries.UpdateEntry(r.Context(), id, e)
	if err != nil {
		s.writeError(w, r, flog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(updated))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, flog.OpDelete, err)
		return
	}
	if err := s.entries.DeleteEntry(r.Context(), id); err != nil {
		s.writeError(w, r, flog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
