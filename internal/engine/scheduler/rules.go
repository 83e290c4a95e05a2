package scheduler

import (
	"bytes"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/cycle"
	"go.trai.ch/kiln/internal/engine/task"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

func (b *build) compute(e *entry) outcome {
	switch e.key.Kind {
	case domain.KindNode:
		return b.computeNode(e.key)
	case domain.KindTarget:
		return b.computeTarget(e.key)
	case domain.KindCommand, domain.KindCustomTask:
		return b.computeCommand(e)
	default:
		err := zerr.With(domain.ErrInvalidKey, "key", e.key.String())
		b.fail(err)
		return outcome{err: err}
	}
}

// computeNode derives a node's value from its producer, or from the file
// system when nothing produces it.
func (b *build) computeNode(key domain.BuildKey) outcome {
	path := key.Name
	producers := b.e.manifest.Producers(path)

	switch {
	case len(producers) > 1:
		refs := make([]ports.CommandRef, 0, len(producers))
		for _, name := range producers {
			refs = append(refs, b.commandRef(domain.CommandKey(name)))
		}
		b.e.delegate.CannotBuildNodeDueToMultipleProducers(key, refs)
		b.failures.Add(1)
		return b.recordDerived(key, domain.FailedInput(), nil)

	case len(producers) == 1:
		producer := domain.CommandKey(producers[0])
		out := b.need(key, producer)
		if out.err != nil {
			return out
		}
		return b.recordDerived(key, b.nodeFromProducer(key, producer, out.value), []domain.BuildKey{producer})

	case b.e.manifest.IsVirtual(path):
		return b.recordDerived(key, domain.VirtualInput(), nil)

	default:
		return b.recordDerived(key, b.statNode(path), nil)
	}
}

func (b *build) nodeFromProducer(key, producer domain.BuildKey, value domain.BuildValue) domain.BuildValue {
	if !value.IsSuccessfulCommand() {
		return domain.FailedInput()
	}
	if b.e.manifest.IsVirtual(key.Name) {
		return domain.VirtualInput()
	}

	decl, ok := b.e.manifest.Command(producer.Name)
	if !ok {
		return domain.FailedInput()
	}
	idx := slices.Index(decl.Outputs, key)
	info := value.OutputInfo(idx)
	if info.IsMissing() {
		return domain.MissingOutput()
	}
	return domain.ExistingInput(info)
}

func (b *build) statNode(path string) domain.BuildValue {
	info := b.e.fs.Stat(path)
	if info.IsMissing() {
		return domain.MissingInput()
	}
	if !b.e.checksums || info.IsDirectory() {
		return domain.ExistingInput(info)
	}

	// Content addressing keeps only the fields a rewrite of identical bytes preserves.
	sum := b.e.fs.Checksum(path)
	return domain.BuildValue{
		Kind:        domain.ValueExistingInput,
		OutputInfos: []domain.FileInfo{{Mode: info.Mode, Size: info.Size}},
		Signature:   xxhash.Sum64(sum[:]),
	}
}

// computeTarget demands every key of a target in parallel.
func (b *build) computeTarget(key domain.BuildKey) outcome {
	keys, ok := b.e.manifest.TargetKeys(key.Name)
	if !ok {
		err := zerr.With(domain.ErrUnknownTarget, "target", key.Name)
		b.fail(err)
		return outcome{err: err}
	}

	g := new(errgroup.Group)
	for _, k := range keys {
		g.Go(func() error {
			return b.need(key, k).err
		})
	}
	if err := g.Wait(); err != nil {
		return outcome{value: domain.CancelledCommand(), err: err}
	}
	return b.recordDerived(key, domain.TargetValue(), keys)
}

// recordDerived stores a node or target value when it is new or changed.
// Unchanged values keep their record, and with it the generation they were built in.
func (b *build) recordDerived(key domain.BuildKey, value domain.BuildValue, deps []domain.BuildKey) outcome {
	rec, err := b.e.store.Lookup(b.ctx, key)
	if err != nil {
		return b.storeFailure(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), key)
	}
	if rec != nil && rec.Value.Equal(value) && slices.Equal(rec.Dependencies, deps) {
		return outcome{value: value, builtAt: rec.BuiltAt}
	}
	return b.commit(key, value, nil, deps, nil)
}

// computeCommand evaluates a Command or CustomTask key.
func (b *build) computeCommand(e *entry) outcome {
	key := e.key
	cmd, decl, err := b.resolveCommand(key)
	if err != nil {
		// A recorded dependency that can no longer be built has changed.
		return outcome{value: domain.MissingInput(), builtAt: b.generation, unresolved: err}
	}
	ref := b.commandRef(key)
	signature := b.signature(cmd, decl)

	rec, err := b.e.store.Lookup(b.ctx, key)
	if err != nil {
		return b.storeFailure(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), key)
	}
	b.mu.Lock()
	e.prior = rec
	b.mu.Unlock()

	b.e.delegate.CommandStatusChanged(ref, domain.CommandStatusScanning)
	current, err := b.upToDate(key, rec, signature, decl)
	if err != nil {
		return outcome{value: domain.CancelledCommand(), err: err}
	}
	if current {
		b.e.logger.Debug("up to date", "key", key.String())
		b.e.metrics.commandUpToDate()
		b.e.delegate.CommandStatusChanged(ref, domain.CommandStatusUpToDate)
		b.noteFailure(rec.Value)
		return outcome{value: rec.Value, builtAt: rec.BuiltAt}
	}

	value, deps, err := b.runTask(key, ref, cmd, decl)
	if err != nil {
		b.fail(err)
		return outcome{value: domain.CancelledCommand(), err: err}
	}
	b.noteFailure(value)
	if value.Kind == domain.ValueCancelledCommand {
		return outcome{value: value, builtAt: b.generation}
	}
	return b.commit(key, value, signature, deps, rec)
}

// upToDate reports whether a record can be reused. Recorded dependencies
// are brought up to date one at a time, in recorded order.
func (b *build) upToDate(key domain.BuildKey, rec *domain.Record, signature []byte, decl *domain.CommandDecl) (bool, error) {
	if rec == nil || b.e.force || !bytes.Equal(rec.Signature, signature) {
		return false, nil
	}
	if rec.Value.Kind == domain.ValueSkippedCommand || rec.Value.Kind == domain.ValueCancelledCommand {
		return false, nil
	}
	if decl != nil && rec.Value.IsSuccessfulCommand() {
		for i, out := range decl.Outputs {
			if out.Kind != domain.KindNode || b.e.manifest.IsVirtual(out.Name) {
				continue
			}
			if b.e.fs.Stat(out.Name) != rec.Value.OutputInfo(i) {
				return false, nil
			}
		}
	}

	for _, dep := range rec.Dependencies {
		out := b.demand(key, dep, cycle.EdgeScan)
		if out.err != nil {
			return false, out.err
		}
		if out.released || out.builtAt > rec.ComputedAt {
			return false, nil
		}
	}
	return true, nil
}

// runTask drives a command through its lifecycle and returns its value and
// the dependencies to record.
func (b *build) runTask(key domain.BuildKey, ref ports.CommandRef, cmd ports.Command, decl *domain.CommandDecl) (domain.BuildValue, []domain.BuildKey, error) {
	var hard []domain.BuildKey
	if decl != nil {
		hard = decl.Inputs
	}

	obs := &observer{delegate: b.e.delegate, ref: ref}
	t := task.New(key, cmd, hard, obs)

	b.e.delegate.CommandPreparing(ref)
	if err := t.Start(); err != nil {
		return domain.BuildValue{}, nil, err
	}

	b.e.delegate.CommandStatusChanged(ref, domain.CommandStatusWaiting)
	if err := b.deliverInputs(key, t); err != nil {
		t.Finish()
		return domain.BuildValue{}, nil, err
	}

	value := b.execute(key, ref, t, decl, obs)

	if err := t.Misuse(); err != nil {
		b.e.delegate.HandleDiagnostic(domain.Diagnostic{
			Kind:    domain.DiagnosticWarning,
			Message: "command misused the engine interface: " + err.Error(),
			Key:     key,
		})
	}

	for _, dep := range t.Discovered() {
		b.background.Add(1)
		go func() {
			defer b.background.Done()
			b.demand(domain.BuildKey{}, dep, cycle.EdgeInput)
		}()
	}

	return value, t.Dependencies(), nil
}

type delivery struct {
	req task.Request
	out outcome
}

// deliverInputs evaluates requested inputs concurrently and hands each value
// to the task on the calling goroutine, until nothing is outstanding.
func (b *build) deliverInputs(key domain.BuildKey, t *task.Task) error {
	results := make(chan delivery)
	outstanding := 0

	for {
		for _, req := range t.TakeRequests() {
			outstanding++
			b.background.Add(1)
			go func() {
				defer b.background.Done()
				d := delivery{req: req, out: b.need(key, req.Key)}
				select {
				case results <- d:
				case <-b.ctx.Done():
				}
			}()
		}
		if outstanding == 0 {
			return nil
		}

		select {
		case d := <-results:
			outstanding--
			if d.out.err != nil {
				return d.out.err
			}
			if err := t.Provide(d.req, d.out.value); err != nil {
				return err
			}
		case <-b.ctx.Done():
			return b.abortError()
		}
	}
}

func (b *build) execute(key domain.BuildKey, ref ports.CommandRef, t *task.Task, decl *domain.CommandDecl, obs *observer) domain.BuildValue {
	if failed := t.FailedInputs(); len(failed) > 0 {
		t.Finish()
		outputs := []domain.BuildKey{key}
		if decl != nil && len(decl.Outputs) > 0 {
			outputs = decl.Outputs
		}
		for _, output := range outputs {
			b.e.delegate.CommandCannotBuildOutputDueToMissingInputs(ref, output, failed)
		}
		value := domain.PropagatedFailureCommand()
		b.finish(ref, value)
		return value
	}

	if !b.e.delegate.ShouldCommandStart(ref) {
		t.Finish()
		value := domain.SkippedCommand()
		b.finish(ref, value)
		return value
	}

	if err := b.sem.Acquire(b.ctx, 1); err != nil {
		t.Finish()
		return domain.CancelledCommand()
	}
	defer b.sem.Release(1)

	ctx, span := b.e.tracer.Start(b.spanCtx, ref.Name,
		ports.WithAttribute("kiln.key", key.String()),
		ports.WithAttribute("kiln.build_id", b.id))
	defer span.End()
	obs.setSpan(span)

	b.e.delegate.CommandStatusChanged(ref, domain.CommandStatusRunning)
	b.e.delegate.CommandStarted(ref)

	started := time.Now()
	value, err := t.Execute(ctx)
	if err != nil {
		span.RecordError(err)
		value = domain.FailedCommand()
	}
	if b.ctx.Err() != nil {
		value = domain.CancelledCommand()
	}
	if value.Kind == domain.ValueSuccessfulCommand && len(value.OutputInfos) == 0 && decl != nil {
		value.OutputInfos = b.statOutputs(decl)
	}

	result := domain.ResultForValue(value)
	span.SetAttribute("kiln.result", result.String())
	if value.IsFailure() {
		span.RecordError(zerr.With(domain.ErrBuildFailed, "key", key.String()))
	}
	b.e.metrics.commandExecuted(result, time.Since(started))
	b.finish(ref, value)
	return value
}

func (b *build) finish(ref ports.CommandRef, value domain.BuildValue) {
	b.e.delegate.CommandFinished(ref, domain.ResultForValue(value))
	b.e.delegate.CommandStatusChanged(ref, domain.CommandStatusComplete)
}

func (b *build) statOutputs(decl *domain.CommandDecl) []domain.FileInfo {
	if len(decl.Outputs) == 0 {
		return nil
	}
	infos := make([]domain.FileInfo, len(decl.Outputs))
	for i, out := range decl.Outputs {
		if out.Kind != domain.KindNode || b.e.manifest.IsVirtual(out.Name) {
			continue
		}
		infos[i] = b.e.fs.Stat(out.Name)
	}
	return infos
}

// commit writes a record for a completed evaluation. Nothing is written once
// the build is aborted.
func (b *build) commit(key domain.BuildKey, value domain.BuildValue, signature []byte, deps []domain.BuildKey, prior *domain.Record) outcome {
	if b.ctx.Err() != nil {
		return outcome{value: value, builtAt: b.generation}
	}

	builtAt := b.generation
	if prior != nil && prior.Value.Equal(value) {
		builtAt = prior.BuiltAt
	}
	rec := domain.Record{
		Key:          key,
		Value:        value,
		Signature:    signature,
		Dependencies: deps,
		BuiltAt:      builtAt,
		ComputedAt:   b.generation,
	}
	if err := b.e.store.Record(b.ctx, rec); err != nil {
		return b.storeFailure(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), key)
	}
	return outcome{value: value, builtAt: builtAt}
}

func (b *build) storeFailure(err error, key domain.BuildKey) outcome {
	err = zerr.With(err, "key", key.String())
	b.fail(err)
	return outcome{value: domain.CancelledCommand(), err: err}
}

// resolveCommand creates the command implementing key through the delegate's tools.
func (b *build) resolveCommand(key domain.BuildKey) (ports.Command, *domain.CommandDecl, error) {
	if key.Kind == domain.KindCustomTask {
		for _, name := range b.e.manifest.ToolNames() {
			tool := b.e.delegate.LookupTool(name)
			if tool == nil {
				continue
			}
			if cmd := tool.CreateCustomCommand(key); cmd != nil {
				return cmd, nil, nil
			}
		}
		return nil, nil, zerr.With(domain.ErrNoCustomTaskHandler, "key", key.String())
	}

	decl, ok := b.e.manifest.Command(key.Name)
	if !ok {
		return nil, nil, zerr.With(domain.ErrUnknownCommand, "command", key.Name)
	}
	toolName := decl.Tool.String()
	tool := b.e.delegate.LookupTool(toolName)
	if tool == nil {
		return nil, nil, zerr.With(zerr.With(domain.ErrUnknownTool, "tool", toolName), "command", key.Name)
	}
	cmd := tool.CreateCommand(key.Name)
	if cmd == nil {
		return nil, nil, zerr.With(zerr.With(domain.ErrNoCommandCreated, "tool", toolName), "command", key.Name)
	}
	return cmd, decl, nil
}

func (b *build) commandRef(key domain.BuildKey) ports.CommandRef {
	ref := ports.CommandRef{Key: key, Name: key.Name, Description: key.String()}
	if key.Kind == domain.KindCustomTask {
		ref.Name = key.String()
		return ref
	}
	if decl, ok := b.e.manifest.Command(key.Name); ok && decl.Description != "" {
		ref.Description = decl.Description
	}
	return ref
}

// signature combines the command's own signature with its manifest declaration.
func (b *build) signature(cmd ports.Command, decl *domain.CommandDecl) []byte {
	h := xxhash.New()
	_, _ = h.Write(cmd.Signature())
	if decl != nil {
		_, _ = h.WriteString("\x00tool=" + decl.Tool.String())
		for _, in := range decl.Inputs {
			_, _ = h.WriteString("\x00in=" + in.String())
		}
		for _, out := range decl.Outputs {
			_, _ = h.WriteString("\x00out=" + out.String())
		}
	}
	return h.Sum(nil)
}
