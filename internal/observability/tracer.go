// ABOUTME: Optional OTLP trace export for conversation turns.
// ABOUTME: Falls back to a no-op tracer when no collector is configured.

package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const serviceName = "tcg-agent"

// Tracer records conversation turns. Callers never check whether tracing
// is configured; the disabled form simply records nothing.
type Tracer interface {
	// StartTurn opens a span for one conversational turn.
	StartTurn(ctx context.Context, transport, sessionID string) (context.Context, trace.Span)

	// Enabled reports whether spans are exported anywhere.
	Enabled() bool

	// Shutdown flushes pending spans.
	Shutdown(ctx context.Context) error
}

// Disabled returns a Tracer that records nothing.
func Disabled() Tracer {
	return &noopTracer{tracer: noop.NewTracerProvider().Tracer(serviceName)}
}

type noopTracer struct {
	tracer trace.Tracer
}

func (t *noopTracer) StartTurn(ctx context.Context, transport, sessionID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "chat.turn")
}

func (t *noopTracer) Enabled() bool { return false }

func (t *noopTracer) Shutdown(ctx context.Context) error { return nil }

// NewOTLP builds a Tracer that batches spans to an OTLP HTTP collector.
// authKey, when set, is sent as a bearer token.
func NewOTLP(ctx context.Context, endpoint, authKey string, logger *slog.Logger) (Tracer, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpointURL(endpoint),
	}
	if authKey != "" {
		opts = append(opts, otlptracehttp.WithHeaders(map[string]string{
			"Authorization": "Bearer " + authKey,
		}))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, fmt.Errorf("building trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	logger.Info("trace export enabled", "endpoint", endpoint)
	return &otlpTracer{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
	}, nil
}

type otlpTracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

func (t *otlpTracer) StartTurn(ctx context.Context, transport, sessionID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.String("chat.transport", transport),
		attribute.String("chat.session_id", sessionID),
	))
}

func (t *otlpTracer) Enabled() bool { return true }

func (t *otlpTracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}
