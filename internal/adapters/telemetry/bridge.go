package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

// CommandKeyAttribute marks the spans of executing commands. Only those are
// shown by the renderer; the enclosing build span is not.
const CommandKeyAttribute = "kiln.key"

// Bridge is an sdktrace.SpanProcessor that reports command spans to a Renderer.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a Bridge feeding renderer.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart reports the start of a command span.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if b.renderer == nil || !isCommandSpan(s.Attributes()) {
		return
	}
	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	var parentID string
	if p := trace.SpanFromContext(parent).SpanContext(); p.IsValid() {
		parentID = p.SpanID().String()
	}
	b.renderer.OnCommandStart(sc.SpanID().String(), parentID, s.Name(), s.StartTime())
}

// OnEnd reports the end of a command span. A span with error status is
// reported as failed with the status description.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil || !isCommandSpan(s.Attributes()) {
		return
	}
	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	var err error
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "command failed"
		}
		err = errors.New(desc)
	}
	b.renderer.OnCommandComplete(sc.SpanID().String(), s.EndTime(), err)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(context.Context) error { return nil }

// Shutdown does nothing.
func (b *Bridge) Shutdown(context.Context) error { return nil }

func isCommandSpan(attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		if string(kv.Key) == CommandKeyAttribute {
			return true
		}
	}
	return false
}
