package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})
	return recorder
}

func TestTracing_ServerSpanPerRequest(t *testing.T) {
	recorder := withRecorder(t)

	var handlerSpan trace.SpanContext
	app := fiber.New()
	app.Use(Tracing("intent-test"))
	app.Get("/crimes/:id", func(c *fiber.Ctx) error {
		handlerSpan = trace.SpanContextFromContext(c.UserContext())
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/crimes/abc", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "GET /crimes/:id" {
		t.Errorf("expected span named by route, got %q", span.Name())
	}
	if span.SpanKind() != trace.SpanKindServer {
		t.Errorf("expected server span, got %v", span.SpanKind())
	}
	if !handlerSpan.IsValid() || handlerSpan.SpanID() != span.SpanContext().SpanID() {
		t.Error("expected handler context to carry the server span")
	}
	if resp.Header.Get(TraceIDHeader) != span.SpanContext().TraceID().String() {
		t.Errorf("expected trace id header, got %q", resp.Header.Get(TraceIDHeader))
	}
}

func TestTracing_ContinuesIncomingTrace(t *testing.T) {
	recorder := withRecorder(t)

	app := fiber.New()
	app.Use(Tracing("intent-test"))
	app.Get("/theme", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("GET", "/theme", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	if _, err := app.Test(req); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if got := spans[0].SpanContext().TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("expected incoming trace id, got %s", got)
	}
	if got := spans[0].Parent().SpanID().String(); got != "00f067aa0ba902b7" {
		t.Errorf("expected incoming parent span, got %s", got)
	}
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	recorder := withRecorder(t)

	app := fiber.New()
	app.Use(Tracing("intent-test"))
	app.Get("/crimes", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusInternalServerError)
	})

	if _, err := app.Test(httptest.NewRequest("GET", "/crimes", nil)); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status().Code)
	}
}
