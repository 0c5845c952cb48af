package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"fluxo/internal/core"
	"fluxo/internal/services"
)

const maxBodyBytes = 1 << 20

// RequestError reports malformed input. Fields maps parameter names to problems.
type RequestError struct {
	Message string
	Fields  map[string]string
}

func (e *RequestError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// amountField accepts either a JSON string ("1.234,56") or a number (1234.56).
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number")
	}
	*a = amountField(n.String())
	return nil
}

type entryRequest struct {
	Date        string      `json:"date" validate:"required"`
	Entity      string      `json:"entity" validate:"required,max=100"`
	Description string      `json:"description" validate:"max=200"`
	Category    string      `json:"category" validate:"max=100"`
	Kind        string      `json:"kind" validate:"required"`
	Amount      amountField `json:"amount" validate:"required"`
	Notes       string      `json:"notes" validate:"max=500"`
}

// decodeEntry reads and validates an entry body. Domain rules (date layout,
// kind aliases, amount parsing) are left to the store.
func (s *Server) decodeEntry(w http.ResponseWriter, r *http.Request) (core.Entry, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	var req entryRequest
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return core.Entry{}, &RequestError{Message: "request body is empty"}
		}
		return core.Entry{}, &RequestError{Message: "invalid JSON body: " + err.Error()}
	}

	req.Date = sanitizeInput(req.Date)
	req.Entity = sanitizeInput(req.Entity)
	req.Description = sanitizeInput(req.Description)
	req.Category = sanitizeInput(req.Category)
	req.Kind = sanitizeInput(req.Kind)
	req.Amount = amountField(sanitizeInput(string(req.Amount)))
	req.Notes = sanitizeInput(req.Notes)

	if err := s.validateStruct("invalid entry", req); err != nil {
		return core.Entry{}, err
	}

	return core.Entry{
		Date:        req.Date,
		Entity:      req.Entity,
		Description: req.Description,
		Category:    req.Category,
		Kind:        req.Kind,
		Amount:      string(req.Amount),
		Notes:       req.Notes,
	}, nil
}

type filterParams struct {
	Entity string `json:"entity" validate:"max=100"`
	Limit  int    `json:"limit" validate:"min=0,max=10000"`
}

// parseEntryFilter reads entity, from, to, kind and limit. A zero limit means all.
func (s *Server) parseEntryFilter(q url.Values) (core.Filter, int, error) {
	fields := map[string]string{}
	p := filterParams{
		Entity: sanitizeInput(q.Get("entity")),
		Limit:  intParam(q, "limit", 0, fields),
	}
	f := core.Filter{Entity: p.Entity}

	f.From = dateParam(q, "from", fields)
	f.To = dateParam(q, "to", fields)

	if v := strings.TrimSpace(q.Get("kind")); v != "" {
		f.Kind = core.ParseKind(v)
		if f.Kind == core.KindUnknown {
			fields["kind"] = "must be inflow or outflow"
		}
	}

	if err := s.collect("invalid filter", p, fields); err != nil {
		return core.Filter{}, 0, err
	}
	return f, p.Limit, nil
}

type dashboardParams struct {
	Entity      string `json:"entity" validate:"max=100"`
	Year        int    `json:"year" validate:"omitempty,min=1900,max=2999"`
	TrendMonths int    `json:"trend_months" validate:"oneof=3 6 12"`
}

// parseDashboardQuery reads entity, year and trend_months. A missing year
// means the current one.
func (s *Server) parseDashboardQuery(q url.Values) (services.DashboardQuery, error) {
	fields := map[string]string{}
	p := dashboardParams{
		Entity:      sanitizeInput(q.Get("entity")),
		Year:        intParam(q, "year", 0, fields),
		TrendMonths: intParam(q, "trend_months", s.defaultTrend, fields),
	}
	if err := s.collect("invalid dashboard query", p, fields); err != nil {
		return services.DashboardQuery{}, err
	}
	return services.DashboardQuery(p), nil
}

type compareParams struct {
	EntityA string `json:"entity_a" validate:"max=100"`
	YearA   int    `json:"year_a" validate:"omitempty,min=1900,max=2999"`
	EntityB string `json:"entity_b" validate:"max=100"`
	YearB   int    `json:"year_b" validate:"omitempty,min=1900,max=2999"`
}

// parseCompareQuery reads entity_a, year_a, entity_b and year_b.
func (s *Server) parseCompareQuery(q url.Values) (services.CompareQuery, error) {
	fields := map[string]string{}
	p := compareParams{
		EntityA: sanitizeInput(q.Get("entity_a")),
		YearA:   intParam(q, "year_a", 0, fields),
		EntityB: sanitizeInput(q.Get("entity_b")),
		YearB:   intParam(q, "year_b", 0, fields),
	}
	if err := s.collect("invalid compare query", p, fields); err != nil {
		return services.CompareQuery{}, err
	}
	return services.CompareQuery{
		A: services.Selection{Entity: p.EntityA, Year: p.YearA},
		B: services.Selection{Entity: p.EntityB, Year: p.YearB},
	}, nil
}

type forecastParams struct {
	Entity        string `json:"entity" validate:"max=100"`
	HistoryMonths int    `json:"history_months" validate:"oneof=6 12 24"`
	HorizonMonths int    `json:"horizon_months" validate:"oneof=3 6 12"`
}

// parseForecastQuery reads entity, history_months (default 12) and
// horizon_months (default 6).
func (s *Server) parseForecastQuery(q url.Values) (services.ForecastQuery, error) {
	fields := map[string]string{}
	p := forecastParams{
		Entity:        sanitizeInput(q.Get("entity")),
		HistoryMonths: intParam(q, "history_months", 12, fields),
		HorizonMonths: intParam(q, "horizon_months", 6, fields),
	}
	if err := s.collect("invalid forecast query", p, fields); err != nil {
		return services.ForecastQuery{}, err
	}
	return services.ForecastQuery(p), nil
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &RequestError{Message: "invalid entry id", Fields: map[string]string{"id": "must be a positive integer"}}
	}
	return id, nil
}

func dateParam(q url.Values, name string, fields map[string]string) time.Time {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return time.Time{}
	}
	d, ok := core.ParseDate(v)
	if !ok {
		fields[name] = "must be a date (YYYY-MM-DD)"
	}
	return d
}

// intParam parses name from q, recording a problem in fields when it is not a number.
func intParam(q url.Values, name string, def int, fields map[string]string) int {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fields[name] = "must be a number"
		return def
	}
	return n
}

// collect runs struct validation and merges its problems with fields
// already found while parsing. Parse problems win over validation ones.
func (s *Server) collect(msg string, params any, fields map[string]string) error {
	if err := s.validateStruct(msg, params); err != nil {
		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			return err
		}
		for name, problem := range reqErr.Fields {
			if _, ok := fields[name]; !ok {
				fields[name] = problem
			}
		}
	}
	if len(fields) > 0 {
		return &RequestError{Message: msg, Fields: fields}
	}
	return nil
}

func (s *Server) validateStruct(msg string, v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate request: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldProblem(fe)
	}
	return &RequestError{Message: msg, Fields: fields}
}

func fieldProblem(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

// sanitizeInput removes control characters except tab and newlines, and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
