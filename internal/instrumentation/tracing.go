// Package instrumentation wires OpenTelemetry tracing for tool calls.
package instrumentation

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the tracer used for tool spans.
const TracerName = "gdrive-mcp"

// EnvTracing selects the trace exporter.
const EnvTracing = "GDRIVE_MCP_TRACING"

// Supported exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// Span attribute keys.
const (
	SpanAttrTool   = "mcp.tool"
	SpanAttrStatus = "mcp.status"
)

// Provider owns the tracer provider, if any.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
}

// NewProvider creates a provider for the named exporter. Spans from the stdout
// exporter are written to w, which must not be the MCP stdio stream.
func NewProvider(exporter string, w io.Writer) (*Provider, error) {
	switch exporter {
	case "", ExporterNone:
		return &Provider{tracer: noop.NewTracerProvider().Tracer(TracerName)}, nil

	case ExporterStdout:
		slog.Warn("stdout traces exporter enabled - for development/debugging only",
			"component", "instrumentation",
			"exporter", ExporterStdout,
		)
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tp)
		return NewProviderFrom(tp), nil

	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", exporter)
	}
}

// NewProviderFrom wraps an existing SDK tracer provider.
func NewProviderFrom(tp *sdktrace.TracerProvider) *Provider {
	return &Provider{tracerProvider: tp, tracer: tp.Tracer(TracerName)}
}

// Tracer returns the tool tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider == nil {
		return nil
	}
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}

// StartToolSpan starts a span named "tool.<name>".
func StartToolSpan(ctx context.Context, tracer trace.Tracer, tool string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "tool."+tool,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String(SpanAttrTool, tool)),
	)
}

// EndToolSpan records the outcome and ends the span.
func EndToolSpan(span trace.Span, failed bool, message string) {
	if failed {
		span.SetAttributes(attribute.String(SpanAttrStatus, "error"))
		span.SetStatus(codes.Error, message)
	} else {
		span.SetAttributes(attribute.String(SpanAttrStatus, "success"))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
