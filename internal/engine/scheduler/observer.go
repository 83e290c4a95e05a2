package scheduler

import (
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// observer forwards what a command reports to the delegate and, once the
// command executes, copies process output into its span.
type observer struct {
	delegate ports.Delegate
	ref      ports.CommandRef

	mu   sync.Mutex
	span ports.Span
}

func (o *observer) setSpan(span ports.Span) {
	o.mu.Lock()
	o.span = span
	o.mu.Unlock()
}

func (o *observer) Diagnostic(kind domain.DiagnosticKind, message string) {
	switch kind {
	case domain.DiagnosticError:
		o.delegate.CommandHadError(o.ref, message)
	case domain.DiagnosticWarning:
		o.delegate.CommandHadWarning(o.ref, message)
	default:
		o.delegate.CommandHadNote(o.ref, message)
	}
}

func (o *observer) ProcessStarted(proc domain.ProcessHandle) {
	o.delegate.CommandProcessStarted(o.ref, proc)
}

func (o *observer) ProcessHadOutput(proc domain.ProcessHandle, data []byte) {
	o.mu.Lock()
	if o.span != nil {
		_, _ = o.span.Write(data)
	}
	o.mu.Unlock()
	o.delegate.CommandProcessHadOutput(o.ref, proc, data)
}

func (o *observer) ProcessHadError(proc domain.ProcessHandle, message string) {
	o.delegate.CommandProcessHadError(o.ref, proc, message)
}

func (o *observer) ProcessFinished(proc domain.ProcessHandle, result domain.ProcessResult) {
	o.delegate.CommandProcessFinished(o.ref, proc, result)
}
