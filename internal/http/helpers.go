package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"fluxo/internal/analytics"
	"fluxo/internal/core"
	"fluxo/internal/ledger"
	flog "fluxo/internal/log"
	"fluxo/internal/services"
)

// forecastAdvisory is shown when the history window holds no entries.
const forecastAdvisory = "Não há dados suficientes para fazer projeções"

type errorResponse struct {
	Error    string            `json:"error"`
	Fields   map[string]string `json:"fields,omitempty"`
	Advisory string            `json:"advisory,omitempty"`
}

var badRequestErrors = []error{
	core.ErrInvalidDate,
	core.ErrInvalidAmount,
	core.ErrNegativeAmount,
	core.ErrEmptyEntity,
	core.ErrUnknownKind,
	core.ErrDescriptionTooLong,
	services.ErrInvalidQuery,
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, analytics.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError logs server-side failures and renders err as JSON. Internal
// details are never echoed back for 5xx responses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		resp.Error = reqErr.Message
		resp.Fields = reqErr.Fields
	case status == http.StatusUnprocessableEntity:
		resp.Advisory = forecastAdvisory
	case status >= http.StatusInternalServerError:
		resp.Error = http.StatusText(status)
		flog.NewStructuredLogger(flog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, flog.ComponentHTTP, op, flog.NewFields())
	}
	writeJSON(w, status, resp)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
