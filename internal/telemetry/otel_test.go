package telemetry

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), "", "learnquest-service")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Fatalf("expected global tracer provider to stay untouched")
	}
}

func TestSetupWithEndpointRegistersProvider(t *testing.T) {
	shutdown, err := Setup(context.Background(), "http://127.0.0.1:4318", "learnquest-service")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = shutdown(ctx)
	}()

	tracer := otel.Tracer("test")
	_, span := tracer.Start(context.Background(), "offline.sync")
	if !span.SpanContext().IsValid() {
		t.Fatalf("expected a recording span from the sdk provider")
	}
	span.End()
}
