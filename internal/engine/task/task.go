// Package task drives a single command through its lifecycle:
// Created, Started, WaitingForInputs, Ready, Executing and Finished.
//
// A Task is owned by one driver goroutine in the scheduler. Only the
// command's execute hook may call back from other goroutines, and only
// through DiscoveredDependency and the process hooks.
package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// State is the lifecycle state of a Task.
type State uint8

const (
	// StateCreated is the initial state.
	StateCreated State = iota
	// StateStarted is held while the command's start hook runs.
	StateStarted
	// StateWaitingForInputs means at least one requested input is outstanding.
	StateWaitingForInputs
	// StateReady means every requested input was delivered.
	StateReady
	// StateExecuting is held while the command's execute hook runs.
	StateExecuting
	// StateFinished is terminal.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateWaitingForInputs:
		return "waiting-for-inputs"
	case StateReady:
		return "ready"
	case StateExecuting:
		return "executing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Request is an input the driver must evaluate and hand back through Provide.
type Request struct {
	Key     domain.BuildKey
	InputID uint
	// Hard marks a manifest-declared input. Its value is tracked by the task
	// and never delivered to the command.
	Hard bool
}

// Observer receives the diagnostics and process events a command reports.
type Observer interface {
	Diagnostic(kind domain.DiagnosticKind, message string)
	ProcessStarted(proc domain.ProcessHandle)
	ProcessHadOutput(proc domain.ProcessHandle, data []byte)
	ProcessHadError(proc domain.ProcessHandle, message string)
	ProcessFinished(proc domain.ProcessHandle, result domain.ProcessResult)
}

// Task is the in-memory evaluation of a Command or CustomTask key.
// It implements ports.CommandInterface for the command it wraps.
type Task struct {
	key      domain.BuildKey
	command  ports.Command
	hard     []domain.BuildKey
	observer Observer

	mu          sync.Mutex
	state       State
	accepting   bool
	queued      []Request
	pending     map[uint]int
	hardPending int
	inputs      []domain.BuildKey
	discovered  []domain.BuildKey
	failed      []domain.BuildKey
	misuse      []error

	processes atomic.Uint64
}

var _ ports.CommandInterface = (*Task)(nil)

// New creates a task in the Created state. hardInputs are requested before
// the command's start hook runs. observer may be nil.
func New(key domain.BuildKey, command ports.Command, hardInputs []domain.BuildKey, observer Observer) *Task {
	return &Task{
		key:      key,
		command:  command,
		hard:     hardInputs,
		observer: observer,
		pending:  make(map[uint]int),
	}
}

// Key returns the key the task evaluates.
func (t *Task) Key() domain.BuildKey {
	return t.key
}

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start queues the hard inputs and runs the command's start hook.
func (t *Task) Start() error {
	t.mu.Lock()
	if t.state != StateCreated {
		defer t.mu.Unlock()
		return t.stateError("Start")
	}
	t.state = StateStarted
	for i, k := range t.hard {
		t.enqueue(Request{Key: k, InputID: uint(i), Hard: true})
	}
	t.accepting = true
	t.mu.Unlock()

	t.command.Start(t)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.accepting = false
	t.settle()
	return nil
}

// TakeRequests returns the inputs requested since the last call.
func (t *Task) TakeRequests() []Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	reqs := t.queued
	t.queued = nil
	return reqs
}

// Provide delivers the value of a request taken with TakeRequests.
// Values of command requests are passed to the command, which may request
// further inputs while handling them.
func (t *Task) Provide(req Request, value domain.BuildValue) error {
	t.mu.Lock()
	if t.state != StateWaitingForInputs {
		defer t.mu.Unlock()
		return t.stateError("Provide")
	}

	if req.Hard {
		defer t.mu.Unlock()
		if t.hardPending == 0 {
			return zerr.With(zerr.With(domain.ErrInvalidTaskState, "key", t.key.String()), "input", req.Key.String())
		}
		t.hardPending--
		if value.IsFailure() {
			t.failed = append(t.failed, req.Key)
		}
		t.settle()
		return nil
	}

	n := t.pending[req.InputID]
	if n == 0 {
		defer t.mu.Unlock()
		return zerr.With(zerr.With(domain.ErrInvalidTaskState, "key", t.key.String()), "input_id", req.InputID)
	}
	if n == 1 {
		delete(t.pending, req.InputID)
	} else {
		t.pending[req.InputID] = n - 1
	}
	t.accepting = true
	t.mu.Unlock()

	t.command.ProvideValue(t, value, req.InputID)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.accepting = false
	t.settle()
	return nil
}

// Execute runs the command's execute hook. It is valid only in Ready.
// A command implementing ports.ValueExecutor supplies its own value;
// otherwise the boolean result maps to SuccessfulCommand or FailedCommand.
func (t *Task) Execute(ctx context.Context) (domain.BuildValue, error) {
	t.mu.Lock()
	if t.state != StateReady {
		defer t.mu.Unlock()
		return domain.BuildValue{}, t.stateError("Execute")
	}
	t.state = StateExecuting
	t.mu.Unlock()

	var value domain.BuildValue
	if ve, ok := t.command.(ports.ValueExecutor); ok {
		value = ve.ExecuteValue(ctx, t)
	} else if t.command.Execute(ctx, t) {
		value = domain.SuccessfulCommand()
	} else {
		value = domain.FailedCommand()
	}

	t.mu.Lock()
	t.state = StateFinished
	t.mu.Unlock()
	return value, nil
}

// Finish ends the task without executing it.
func (t *Task) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateFinished
	t.accepting = false
}

// Dependencies returns the requested inputs in request order followed by
// the discovered dependencies, without duplicates.
func (t *Task) Dependencies() []domain.BuildKey {
	t.mu.Lock()
	defer t.mu.Unlock()
	deps := make([]domain.BuildKey, 0, len(t.inputs)+len(t.discovered))
	deps = append(deps, t.inputs...)
	return domain.AppendUniqueKeys(deps, t.discovered...)
}

// Discovered returns the dependencies reported during execution.
func (t *Task) Discovered() []domain.BuildKey {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.BuildKey(nil), t.discovered...)
}

// FailedInputs returns the hard inputs whose value was a failure.
func (t *Task) FailedInputs() []domain.BuildKey {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.BuildKey(nil), t.failed...)
}

// Misuse returns the calls the command made outside their allowed state.
func (t *Task) Misuse() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return errors.Join(t.misuse...)
}

// NeedsInput implements ports.CommandInterface.
func (t *Task) NeedsInput(key domain.BuildKey, inputID uint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.accepting {
		t.recordMisuse("NeedsInput", key)
		return
	}
	t.enqueue(Request{Key: key, InputID: inputID})
	t.state = StateWaitingForInputs
}

// DiscoveredDependency implements ports.CommandInterface.
func (t *Task) DiscoveredDependency(key domain.BuildKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateExecuting {
		t.recordMisuse("DiscoveredDependency", key)
		return
	}
	t.discovered = domain.AppendUniqueKeys(t.discovered, key)
}

// HadDiagnostic implements ports.CommandInterface.
func (t *Task) HadDiagnostic(kind domain.DiagnosticKind, message string) {
	if t.observer != nil {
		t.observer.Diagnostic(kind, message)
	}
}

// ProcessStarted implements ports.CommandInterface.
func (t *Task) ProcessStarted(pid int) domain.ProcessHandle {
	proc := domain.ProcessHandle{ID: t.processes.Add(1), PID: pid}
	if t.observer != nil {
		t.observer.ProcessStarted(proc)
	}
	return proc
}

// ProcessHadOutput implements ports.CommandInterface.
func (t *Task) ProcessHadOutput(proc domain.ProcessHandle, data []byte) {
	if t.observer != nil {
		t.observer.ProcessHadOutput(proc, data)
	}
}

// ProcessHadError implements ports.CommandInterface.
func (t *Task) ProcessHadError(proc domain.ProcessHandle, message string) {
	if t.observer != nil {
		t.observer.ProcessHadError(proc, message)
	}
}

// ProcessFinished implements ports.CommandInterface.
func (t *Task) ProcessFinished(proc domain.ProcessHandle, result domain.ProcessResult) {
	if t.observer != nil {
		t.observer.ProcessFinished(proc, result)
	}
}

// enqueue must be called with mu held.
func (t *Task) enqueue(req Request) {
	t.queued = append(t.queued, req)
	t.inputs = domain.AppendUniqueKeys(t.inputs, req.Key)
	if req.Hard {
		t.hardPending++
		return
	}
	t.pending[req.InputID]++
}

// settle must be called with mu held.
func (t *Task) settle() {
	if t.state == StateFinished {
		return
	}
	if t.hardPending == 0 && len(t.pending) == 0 {
		t.state = StateReady
		return
	}
	t.state = StateWaitingForInputs
}

func (t *Task) recordMisuse(call string, key domain.BuildKey) {
	err := zerr.With(domain.ErrTaskMisuse, "call", call)
	err = zerr.With(err, "state", t.state.String())
	err = zerr.With(err, "input", key.String())
	t.misuse = append(t.misuse, zerr.With(err, "key", t.key.String()))
}

func (t *Task) stateError(op string) error {
	err := zerr.With(domain.ErrInvalidTaskState, "op", op)
	err = zerr.With(err, "state", t.state.String())
	return zerr.With(err, "key", t.key.String())
}
