package api

import (
	"context"
	"net/http"
	"time"

	"github.com/shandianxiao218/fly-cline/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/shandianxiao218/fly-cline/internal/api"

// TracingMiddleware opens a server span per request, continuing a caller's
// trace when the standard propagation headers are present.
func TracingMiddleware(route string, next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+route, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		attrs := []attribute.KeyValue{
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		}
		if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
			attrs = append(attrs, attribute.String("request_id", reqID))
		}
		span.SetAttributes(attrs...)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StartComputeSpan starts a child span around one visibility sweep. The
// caller ends the span; RecordSweepError marks it failed first.
func StartComputeSpan(ctx context.Context, epoch time.Time, satellites int) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, "visibility.compute", trace.WithAttributes(
		attribute.String("visibility.epoch", epoch.Format(time.RFC3339)),
		attribute.Int("visibility.satellites", satellites),
	))
}

// RecordSweepError attaches a sweep failure to the span.
func RecordSweepError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
}
