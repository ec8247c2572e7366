package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/review-sentiment/internal/core/domain"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/batches/0b6f/export": "/v1/batches/{id}/export",
		"/v1/batches/0b6f":        "/v1/batches/{id}",
		"/v1/batches":             "/v1/batches",
		"/v1/batches/":            "/v1/batches/",
		"/v1/analyze":             "/v1/analyze",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Fatalf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestMiddlewareRecordsNormalizedPath(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/batches/abc", nil))
	m.RecordRateLimited("api", "/v1/analyze")
	m.RecordPrediction("api", "Positive")

	body := scrape(t, m.Handler())
	for _, want := range []string{
		`sentiment_http_requests_total{method="GET",path="/v1/batches/{id}",service="api",status="404"} 1`,
		`sentiment_http_rate_limited_total{path="/v1/analyze",service="api"} 1`,
		`sentiment_analyze_predictions_total{label="positive",service="api"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

func TestBatchMetricsObservers(t *testing.T) {
	m := NewBatchMetrics("worker")
	m.StartBatch()
	m.ObserveRow("success", 10*time.Millisecond)
	m.ObserveRow("error", 5*time.Millisecond)
	m.FinishBatch(domain.BatchCompleted, time.Second)

	body := scrape(t, m.Handler())
	for _, want := range []string{
		`sentiment_pipeline_rows_total{outcome="success",service="worker"} 1`,
		`sentiment_pipeline_rows_total{outcome="error",service="worker"} 1`,
		`sentiment_worker_batches_total{service="worker",status="completed"} 1`,
		`sentiment_worker_batches_in_flight{service="worker"} 0`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}
