package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/pharmacy/pkg/health"
	"github.com/ghuser/pharmacy/pkg/httpx"
	"github.com/ghuser/pharmacy/pkg/logger"
)

type stubChecker struct{ err error }

func (s *stubChecker) Ping(_ context.Context) error { return s.err }

func newRouter(checks map[string]health.Checker) http.Handler {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("pharmacy_calls_total 3\n"))
	})
	return httpx.NewOpsRouter(logger.Discard(), "pharmacy-test", metrics, checks)
}

func TestOpsRouter_Metrics(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "pharmacy_calls_total 3\n" {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
}

func TestOpsRouter_HealthOK(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(map[string]health.Checker{"store": &stubChecker{}}).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Components["store"] != "ok" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestOpsRouter_HealthDegraded(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(map[string]health.Checker{
		"store": &stubChecker{},
		"redis": &stubChecker{err: errors.New("timeout")},
	}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var resp map[string]any
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	components, _ := resp["components"].(map[string]any)
	if resp["status"] != "degraded" || components["redis"] != "unreachable" || components["store"] != "ok" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestOpsRouter_NotFound(t *testing.T) {
	rr := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/medicines", http.NoBody))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "not found" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestOpsRouter_RecoversPanics(t *testing.T) {
	r := httpx.NewOpsRouter(logger.Discard(), "pharmacy-test", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestOpsRouter_StartsServerSpan(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	rr := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "pharmacy-test" {
		t.Errorf("unexpected span name %q", spans[0].Name)
	}
	if spans[0].SpanKind != trace.SpanKindServer {
		t.Errorf("expected server span, got %v", spans[0].SpanKind)
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	srv := httpx.NewServer("127.0.0.1:0", newRouter(nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := httpx.Serve(ctx, srv, logger.Discard()); err != nil {
		t.Fatalf("Serve() = %v", err)
	}
}

func TestNewServer_Timeouts(t *testing.T) {
	srv := httpx.NewServer(":9090", http.NotFoundHandler())
	if srv.Addr != ":9090" || srv.ReadTimeout == 0 || srv.WriteTimeout == 0 {
		t.Errorf("unexpected server config: %+v", srv)
	}
}
