package observability

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/toolserve/pkg/dispatch"
	"github.com/aretw0/toolserve/pkg/domain"
)

// TracerName is the instrumentation scope used for invocation spans.
const TracerName = "github.com/aretw0/toolserve/dispatch"

// Tracing records each finished invocation as a span.
// Spans are created after the fact with explicit start and end timestamps.
type Tracing struct {
	tracer trace.Tracer
}

// NewTracing creates a Tracing observer bound to the given tracer.
func NewTracing(tracer trace.Tracer) *Tracing {
	return &Tracing{tracer: tracer}
}

// ObserveInvocation implements dispatch.Observer.
func (t *Tracing) ObserveInvocation(ctx context.Context, inv dispatch.Invocation) {
	if t == nil || t.tracer == nil {
		return
	}

	_, span := t.tracer.Start(ctx, "tool:"+inv.Tool,
		trace.WithTimestamp(inv.Started),
		trace.WithAttributes(
			attribute.String("toolserve.tool", inv.Tool),
			attribute.String("toolserve.correlation_id", inv.CorrelationID),
			attribute.String("toolserve.outcome", inv.Outcome),
		),
	)
	if inv.Outcome == domain.OutcomeOK {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, inv.Message)
	}
	span.End(trace.WithTimestamp(inv.Started.Add(inv.Duration)))
}

// TracingConfig selects the OTLP/HTTP collector spans are exported to.
type TracingConfig struct {
	// Endpoint is either host:port or a full URL (http://collector:4318/v1/traces).
	Endpoint string
	Insecure bool
	Service  string
}

// NewTracerProvider builds an SDK tracer provider exporting over OTLP/HTTP.
// The caller owns the provider and must Shutdown it.
func NewTracerProvider(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("tracing endpoint is empty")
	}

	var opts []otlptracehttp.Option
	if strings.Contains(cfg.Endpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	service := cfg.Service
	if service == "" {
		service = "toolserve"
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", service))),
	), nil
}
