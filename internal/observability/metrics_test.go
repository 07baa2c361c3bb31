package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsRecordSubmissions(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveSubmission("invoice", "success", 300*time.Millisecond)
	metrics.ObserveSubmission("invoice", "ambiguous", time.Second)
	metrics.ObserveSubmission("invoice", "success", 100*time.Millisecond)

	body := scrape(t, metrics)
	if !strings.Contains(body, `banquet_submissions_total{action="invoice",outcome="success"} 2`) {
		t.Fatalf("expected success count, got: %s", body)
	}
	if !strings.Contains(body, `banquet_submissions_total{action="invoice",outcome="ambiguous"} 1`) {
		t.Fatalf("expected ambiguous count, got: %s", body)
	}
	if !strings.Contains(body, `banquet_submission_duration_seconds_count{action="invoice"} 3`) {
		t.Fatalf("expected duration histogram, got: %s", body)
	}
}

func TestMetricsTrackDesks(t *testing.T) {
	metrics := NewMetrics()
	open := 3
	metrics.TrackDesks(func() int { return open })
	if body := scrape(t, metrics); !strings.Contains(body, "banquet_open_desks 3") {
		t.Fatalf("expected desk gauge, got: %s", body)
	}
	open = 1
	if body := scrape(t, metrics); !strings.Contains(body, "banquet_open_desks 1") {
		t.Fatalf("expected desk gauge to follow, got: %s", body)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveSubmission("save", "failure", time.Second)
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics, got %d", rr.Code)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/desk/invoice")

	req := httptest.NewRequest(http.MethodPost, "/desk/invoice", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "banquet_http_requests_total{code=\"409\",route=\"/desk/invoice\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "banquet_http_request_duration_seconds_bucket{route=\"/desk/invoice\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}
