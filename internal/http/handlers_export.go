package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"fluxo/internal/export"
	flog "fluxo/internal/log"
)

// Exports render into a buffer first so a failure can still produce a JSON error.

func (s *Server) handleExportEntries(w http.ResponseWriter, r *http.Request) {
	f, limit, err := s.parseEntryFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}
	entries, err := s.reader.ListEntries(r.Context(), f)
	if err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	var buf bytes.Buffer
	if err := export.WriteEntries(&buf, entries); err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", "lancamentos.csv", buf.Bytes())
}

func (s *Server) handleExportMonthly(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseDashboardQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}
	d, err := s.analytics.Dashboard(r.Context(), q)
	if err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteMonthly(&buf, d.Monthly); err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", "mensal_"+strconv.Itoa(d.Year)+".csv", buf.Bytes())
}

func (s *Server) handleExportSummary(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseDashboardQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}
	d, err := s.analytics.Dashboard(r.Context(), q)
	if err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteSummary(&buf, d); err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}
	writeAttachment(w, "text/plain; charset=utf-8", "relatorio_"+strconv.Itoa(d.Year)+".txt", buf.Bytes())
}

func (s *Server) handleExportForecast(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseForecastQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}
	f, err := s.analytics.Forecast(r.Context(), q)
	if err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteForecast(&buf, f); err != nil {
		s.writeError(w, r, flog.OpExport, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", "previsao.csv", buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
