package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestTracingMiddlewareCreatesServerSpan(t *testing.T) {
	recorder := withSpanRecorder(t)

	handler := TracingMiddleware("/api/v1/satellites", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/satellites", nil))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d spans, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "GET /api/v1/satellites" {
		t.Errorf("span name = %q", span.Name())
	}
	if span.SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v, want server", span.SpanKind())
	}
	if !hasAttribute(span.Attributes(), "http.route", "/api/v1/satellites") {
		t.Errorf("span attributes %v missing http.route", span.Attributes())
	}
}

func TestVisibilityRequestEmitsComputeSpan(t *testing.T) {
	recorder := withSpanRecorder(t)
	srv := testServer(t)

	body := `{
		"time": "2024-03-10T12:00:00Z",
		"aircraft": {"position": {"lon_deg": 116.4, "lat_deg": 39.9, "alt_m": 10000}}
	}`
	rr := postVisibility(t, srv, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var compute, server bool
	for _, span := range recorder.Ended() {
		switch span.Name() {
		case "visibility.compute":
			compute = true
			if !hasAttribute(span.Attributes(), "visibility.epoch", "2024-03-10T12:00:00Z") {
				t.Errorf("compute span attributes %v missing epoch", span.Attributes())
			}
		case "POST /api/v1/visibility":
			server = true
		}
	}
	if !compute || !server {
		t.Errorf("compute span = %v, server span = %v, want both", compute, server)
	}
}

func hasAttribute(attrs []attribute.KeyValue, key, value string) bool {
	for _, a := range attrs {
		if string(a.Key) == key && a.Value.AsString() == value {
			return true
		}
	}
	return false
}
