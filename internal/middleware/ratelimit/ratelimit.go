package ratelimit

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	flog "fluxo/internal/log"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	Window            time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		Window:            time.Minute,
	}
}

// Middleware limits requests per client IP and answers 429 with a JSON body
// once the budget for the window is spent.
func Middleware(config Config) func(http.Handler) http.Handler {
	defaults := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = defaults.RequestsPerMinute
	}
	if config.Window <= 0 {
		config.Window = defaults.Window
	}

	return httprate.Limit(config.RequestsPerMinute, config.Window,
		httprate.WithKeyFuncs(Key),
		httprate.WithLimitHandler(tooManyRequests),
	)
}

// Key buckets requests by client IP.
func Key(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	flog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		flog.FieldComponent, flog.ComponentHTTP,
		flog.FieldPath, r.URL.Path)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
}
