package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMiddlewareLimitsPerIP(t *testing.T) {
	h := Middleware(Config{RequestsPerMinute: 2})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/overview", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusNoContent, call("10.0.0.1").Code)
	require.Equal(t, http.StatusNoContent, call("10.0.0.1").Code)

	rec := call("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())

	require.Equal(t, http.StatusNoContent, call("10.0.0.2").Code)
}

func TestKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.4:999"
	key, err := Key(req)
	require.NoError(t, err)
	require.Equal(t, "ip:192.168.1.4", key)
}
