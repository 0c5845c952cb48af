package log

import (
	"maps"
	"slices"

	"fluxo/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldReferer    = "referer"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldEntryID    = "entry_id"
	FieldEntity     = "entity"
	FieldKind       = "kind"
	FieldAmount     = "amount"
	FieldDate       = "date"
	FieldCategory   = "category"
	FieldFrom       = "from"
	FieldTo         = "to"
	FieldYear       = "year"
	FieldCount      = "count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentAnalytics = "analytics"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentSeed      = "seed"
	ComponentExport    = "export"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpSync      = "sync"
	OpValidate  = "validate"
	OpDashboard = "dashboard"
	OpCompare   = "compare"
	OpForecast  = "forecast"
	OpExport    = "export"
	OpSeed      = "seed"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message, skipping nil errors.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithEntry adds the identifying fields of a ledger entry.
func (f LogFields) WithEntry(e core.Entry) LogFields {
	if e.ID != 0 {
		f[FieldEntryID] = e.ID
	}
	f[FieldEntity] = e.Entity
	f[FieldKind] = e.Kind
	f[FieldAmount] = e.Amount
	f[FieldDate] = e.Date
	f[FieldCategory] = e.Category
	return f
}

// WithFilter adds the non-empty parts of a ledger filter.
func (f LogFields) WithFilter(flt core.Filter) LogFields {
	if flt.Entity != "" {
		f[FieldEntity] = flt.Entity
	}
	if from := flt.FromBound(); from != "" {
		f[FieldFrom] = from
	}
	if to := flt.ToBound(); to != "" {
		f[FieldTo] = to
	}
	if flt.Kind != core.KindUnknown {
		f[FieldKind] = flt.Kind.String()
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	f[FieldReferer] = referer
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice flattens the fields into slog key/value pairs, sorted by key.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for _, k := range slices.Sorted(maps.Keys(f)) {
		out = append(out, k, f[k])
	}
	return out
}
