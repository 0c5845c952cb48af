package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	long := "/api/overview?q=" + strings.Repeat("a", 2100)
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		xff    string
		reason string
		block  bool
	}{
		{"ordinary", http.MethodGet, "/api/dashboard?year=2024", "Mozilla/5.0", "", "", false},
		{"trace method", "TRACE", "/", "", "", "method", true},
		{"long url", http.MethodGet, long, "", "", "url_length", true},
		{"traversal", http.MethodGet, "/static/../.env", "", "", "pattern", false},
		{"injection in query", http.MethodGet, "/api/entries?entity=x%27+union+select", "", "", "pattern", false},
		{"scanner", http.MethodGet, "/", "sqlmap/1.7", "", "scanner", false},
		{"forwarding chain", http.MethodGet, "/", "", "1.1.1.1,2.2.2.2,3.3.3.3,4.4.4.4,5.5.5.5,6.6.6.6,7.7.7.7", "forwarding", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.agent != "" {
				req.Header.Set("User-Agent", tt.agent)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			reason, block := Detect(req)
			require.Equal(t, tt.reason, reason)
			require.Equal(t, tt.block, block)
		})
	}
}

func TestDetectionMiddleware(t *testing.T) {
	h := DetectionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("TRACE", "/", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.git/config", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHeaders(t *testing.T) {
	h := Headers(DefaultHeadersConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/overview", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	require.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/api/overview", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}
