package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// ServiceName names the tracer and the traced service.
const ServiceName = "kiln"

// Provider owns the process-wide tracer provider. A build attaches its
// renderer and trace file for its duration through a Session.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// NewProvider creates a Provider with no span processors attached.
func NewProvider() *Provider {
	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", build.Version),
	)
	return &Provider{tp: sdktrace.NewTracerProvider(sdktrace.WithResource(res))}
}

// Shutdown stops the provider. Sessions opened afterwards record nothing.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}

// NewSession attaches renderer and, when traceOut is not nil, an exporter
// writing every span to traceOut as JSON. Either may be nil.
func (p *Provider) NewSession(renderer ports.Renderer, traceOut io.Writer) (*Session, error) {
	s := &Session{
		provider: p,
		tracer:   NewOTelTracer(p.tp.Tracer(ServiceName), renderer),
	}
	if renderer != nil {
		s.bridge = NewBridge(renderer)
		p.tp.RegisterSpanProcessor(s.bridge)
	}
	if traceOut != nil {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(traceOut))
		if err != nil {
			_ = s.Close(context.Background())
			return nil, zerr.Wrap(err, "failed to create trace exporter")
		}
		s.exporter = sdktrace.NewBatchSpanProcessor(exp)
		p.tp.RegisterSpanProcessor(s.exporter)
	}
	return s, nil
}

// Session is the telemetry of a single build run.
type Session struct {
	provider *Provider
	tracer   *OTelTracer
	bridge   sdktrace.SpanProcessor
	exporter sdktrace.SpanProcessor
}

// Tracer returns the tracer the engine reports to.
func (s *Session) Tracer() *OTelTracer {
	return s.tracer
}

// Close exports pending spans and detaches the session's processors.
func (s *Session) Close(ctx context.Context) error {
	var err error
	if s.exporter != nil {
		err = s.exporter.ForceFlush(ctx)
		s.provider.tp.UnregisterSpanProcessor(s.exporter)
		s.exporter = nil
	}
	if s.bridge != nil {
		s.provider.tp.UnregisterSpanProcessor(s.bridge)
		s.bridge = nil
	}
	if err != nil {
		return zerr.Wrap(err, "failed to export trace")
	}
	return nil
}

// OTelTracer implements ports.Tracer on an OpenTelemetry tracer.
type OTelTracer struct {
	tracer   trace.Tracer
	renderer ports.Renderer
}

// NewOTelTracer wraps tracer. When renderer is set, the output written to
// command spans is streamed to it.
func NewOTelTracer(tracer trace.Tracer, renderer ports.Renderer) *OTelTracer {
	return &OTelTracer{tracer: tracer, renderer: renderer}
}

// Start creates a span carrying the configured attributes.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	attrs := attributesOf(cfg.Attributes)

	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))

	var batcher *BatchProcessor
	if t.renderer != nil && isCommandSpan(attrs) {
		spanID := span.SpanContext().SpanID().String()
		batcher = NewBatchProcessor(0, 0, func(data []byte) {
			t.renderer.OnCommandLog(spanID, data)
		})
	}
	return ctx, &OTelSpan{span: span, batcher: batcher}
}

// EmitPlan records the plan as an event of the current span and hands it
// to the renderer.
func (t *OTelTracer) EmitPlan(ctx context.Context, commands []string, deps map[string][]string, targets []string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(
			attribute.StringSlice("commands", commands),
			attribute.StringSlice("targets", targets),
		))
	}
	if t.renderer != nil {
		t.renderer.OnPlanEmit(commands, deps, targets)
	}
}

// OTelSpan implements ports.Span on an OpenTelemetry span.
type OTelSpan struct {
	span    trace.Span
	batcher *BatchProcessor
}

// End flushes buffered output, then ends the span.
func (s *OTelSpan) End() {
	if s.batcher != nil {
		_ = s.batcher.Close()
	}
	s.span.End()
}

// RecordError records err and marks the span as failed.
func (s *OTelSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	s.span.SetAttributes(attributeOf(key, value))
}

// Write streams command output to the renderer, or records it as a span
// event when no renderer is attached.
func (s *OTelSpan) Write(p []byte) (int, error) {
	if s.batcher != nil {
		n, err := s.batcher.Write(p)
		if errors.Is(err, errBatchClosed) {
			return len(p), nil
		}
		return n, err
	}
	s.span.AddEvent("output", trace.WithAttributes(attribute.String("data", string(p))))
	return len(p), nil
}

func attributesOf(m map[string]any) []attribute.KeyValue {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, attributeOf(k, m[k]))
	}
	return attrs
}

func attributeOf(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

var (
	_ ports.Tracer = (*OTelTracer)(nil)
	_ ports.Span   = (*OTelSpan)(nil)
	_ ports.Tracer = (*NoOpTracer)(nil)
	_ ports.Span   = NoOpSpan{}
)
