package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/review-sentiment/internal/config"
)

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	env := newTestEnv(t, config.Config{
		APIRateLimitRPS:   1,
		APIRateLimitBurst: 1,
	}, analyzerFake{})

	res1 := serve(env.handler, httptest.NewRequest(http.MethodGet, "/v1/settings", nil))
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	res2 := serve(env.handler, httptest.NewRequest(http.MethodGet, "/v1/settings", nil))
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After header for 429 response, got %q", res2.Header().Get("Retry-After"))
	}

	res3 := serve(env.handler, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res3.Code != http.StatusOK {
		t.Fatalf("healthz must bypass the limiter, got %d", res3.Code)
	}

	metricsRes := serve(env.handler, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(metricsRes.Body.String(), `sentiment_http_rate_limited_total{path="/v1/settings",service="api"} 1`) {
		t.Fatalf("expected rate limited counter:\n%s", metricsRes.Body.String())
	}
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	})
	handler := rateLimitMiddleware(next, 0, 0, nil)
	for i := 0; i < 5; i++ {
		res := serve(handler, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
		if res.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", res.Code)
		}
	}
	if calls != 5 {
		t.Fatalf("expected 5 calls, got %d", calls)
	}
}

func TestStatusRecorderCountsBytes(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	rec.WriteHeader(http.StatusCreated)
	_, _ = rec.Write([]byte("hello"))
	if rec.statusCode != http.StatusCreated || rec.bytesWritten != 5 {
		t.Fatalf("unexpected recorder state %d %d", rec.statusCode, rec.bytesWritten)
	}
}
