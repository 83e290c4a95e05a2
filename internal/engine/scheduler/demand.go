package scheduler

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/cycle"
	"go.trai.ch/zerr"
)

// outcome is the result of demanding a key.
type outcome struct {
	value domain.BuildValue
	// builtAt is the generation in which value last changed.
	builtAt uint64
	err     error
	// released is set when cycle resolution ended the wait early.
	released bool
	// unresolved is set when no tool can build the key. Only requesters
	// that need the key as an input treat it as fatal.
	unresolved error
}

// entry is the single in-flight evaluation of a key.
type entry struct {
	key  domain.BuildKey
	done chan struct{}

	// Guarded by build.mu.
	complete bool
	result   outcome
	prior    *domain.Record
}

type edgeID struct {
	from, to domain.BuildKey
}

// waiter is a requester parked on an entry.
type waiter struct {
	edge     cycle.Edge
	released chan struct{}
	closed   bool
	prior    domain.BuildValue
}

// demand returns the value of key for requester from, evaluating it if no
// one has yet. A zero requester waits without taking part in cycle detection.
func (b *build) demand(from, key domain.BuildKey, kind cycle.EdgeKind) outcome {
	b.mu.Lock()
	e, ok := b.entries[key]
	if !ok {
		e = &entry{key: key, done: make(chan struct{})}
		b.entries[key] = e
		b.background.Add(1)
		go b.evaluate(e)
	}
	if e.complete {
		out := e.result
		b.mu.Unlock()
		return out
	}
	if from.IsZero() {
		b.mu.Unlock()
		return b.await(e, nil)
	}

	w := b.addWaiter(cycle.Edge{From: from, To: key, Kind: kind})
	loop := b.waits.FindPath(key, from)
	if loop != nil && from != key {
		loop = append(loop, w.edge)
	}
	b.mu.Unlock()

	if loop != nil {
		b.resolveCycle(loop)
	}

	out := b.await(e, w)

	b.mu.Lock()
	b.removeWaiter(w)
	b.mu.Unlock()
	return out
}

// need demands key as a hard input. A key that no tool can build aborts the build.
func (b *build) need(from, key domain.BuildKey) outcome {
	out := b.demand(from, key, cycle.EdgeInput)
	if out.unresolved != nil {
		b.fail(out.unresolved)
		out.err = out.unresolved
	}
	return out
}

func (b *build) await(e *entry, w *waiter) outcome {
	var released chan struct{}
	if w != nil {
		released = w.released
	}

	select {
	case <-e.done:
		b.mu.Lock()
		defer b.mu.Unlock()
		return e.result
	case <-released:
		b.mu.Lock()
		defer b.mu.Unlock()
		return outcome{value: w.prior, builtAt: b.generation, released: true}
	case <-b.ctx.Done():
		return outcome{value: domain.CancelledCommand(), builtAt: b.generation, err: b.abortError()}
	}
}

// evaluate computes an entry and wakes its waiters.
func (b *build) evaluate(e *entry) {
	defer b.background.Done()
	out := b.compute(e)

	b.mu.Lock()
	e.result = out
	e.complete = true
	close(e.done)
	b.mu.Unlock()
}

// addWaiter must be called with mu held.
func (b *build) addWaiter(edge cycle.Edge) *waiter {
	w := &waiter{edge: edge, released: make(chan struct{})}
	id := edgeID{from: edge.From, to: edge.To}
	set, ok := b.waiters[id]
	if !ok {
		set = make(map[*waiter]struct{})
		b.waiters[id] = set
	}
	set[w] = struct{}{}
	b.waits.AddEdge(edge.From, edge.To, edge.Kind)
	return w
}

// removeWaiter must be called with mu held.
func (b *build) removeWaiter(w *waiter) {
	id := edgeID{from: w.edge.From, to: w.edge.To}
	set := b.waiters[id]
	delete(set, w)
	if len(set) == 0 {
		delete(b.waiters, id)
		b.waits.RemoveEdge(w.edge.From, w.edge.To)
	}
}

// hasPrior must be called with mu held.
func (b *build) hasPrior(key domain.BuildKey) bool {
	e, ok := b.entries[key]
	return ok && e.prior != nil
}

// resolveCycle reports a loop to the delegate and breaks it at the first
// approved candidate. Without approval the build fails.
func (b *build) resolveCycle(loop []cycle.Edge) {
	keys := cycle.Keys(loop)
	path := domain.Cycle{Keys: keys}.Path()

	b.e.metrics.cycleDetected()
	b.e.logger.Warn("dependency cycle detected", "cycle", path)
	b.e.delegate.CycleDetected(keys)

	b.mu.Lock()
	candidates := cycle.Candidates(loop, b.hasPrior)
	b.mu.Unlock()

	for _, c := range candidates {
		if !b.e.delegate.ShouldResolveCycle(keys, c.Key, c.Action) {
			continue
		}
		edge, ok := cycle.EdgeFor(loop, c)
		if ok && b.release(edge) {
			b.e.logger.Info("cycle resolved", "key", c.Key.String(), "action", c.Action.String())
			return
		}
	}

	b.fail(zerr.With(domain.ErrCycleDetected, "cycle", path))
}

// release ends every wait along edge. Scan waits see a changed dependency;
// input waits receive the prior value of the awaited key.
func (b *build) release(edge cycle.Edge) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.waiters[edgeID{from: edge.From, to: edge.To}]
	if len(set) == 0 {
		return false
	}

	var prior domain.BuildValue
	if e, ok := b.entries[edge.To]; ok && e.prior != nil {
		prior = e.prior.Value
	}

	released := false
	for w := range set {
		if w.closed {
			continue
		}
		w.prior = prior
		w.closed = true
		close(w.released)
		released = true
	}
	b.waits.RemoveEdge(edge.From, edge.To)
	return released
}
