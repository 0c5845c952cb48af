package obs

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                       "/",
		"/metrics":               "/metrics",
		"/api/entries":           "/api/entries",
		"/api/entries/42":        "/api/entries/:id",
		"/api/entries/42/extra":  "/api/entries/42/extra",
		"/api/dashboard?year=24": "/api/dashboard",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestInstrumentRecordsStatus(t *testing.T) {
	Init()
	Init()

	h := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/entries/:id", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/entries/7", nil))

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/entries/:id", "418"))
	if after-before != 1 {
		t.Fatalf("expected one request counted, got %v", after-before)
	}
}

func TestObserveComputation(t *testing.T) {
	before := testutil.ToFloat64(computationsTotal.WithLabelValues("forecast", "error"))
	ObserveComputation("forecast", time.Now(), errors.New("no data"))
	if got := testutil.ToFloat64(computationsTotal.WithLabelValues("forecast", "error")) - before; got != 1 {
		t.Fatalf("expected one failed computation, got %v", got)
	}

	rec := httptest.NewRecorder()
	Init()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "fluxo_analytics_computations_total") {
		t.Fatal("metrics output should include the analytics counter")
	}
}
