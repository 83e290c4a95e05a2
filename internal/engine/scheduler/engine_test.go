package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

func fail() func() ports.Command {
	return func() ports.Command {
		return &testCommand{execute: func(context.Context, ports.CommandInterface) bool { return false }}
	}
}

// needs returns a factory for a command that requests keys from its start hook.
func needs(keys ...domain.BuildKey) func() ports.Command {
	return func() ports.Command {
		return &testCommand{start: func(ci ports.CommandInterface) {
			for i, k := range keys {
				ci.NeedsInput(k, uint(i))
			}
		}}
	}
}

func TestEngine_MainCommand(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.command(t, "maincommand", nil, []domain.BuildKey{node("<all>")}, succeed())
		f.target(t, "all", node("<all>"))
		f.manifest.DefaultTarget = "all"
		e := f.engine()

		ok, err := e.Build(context.Background(), "")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"maincommand"}, f.delegate.executions())

		rec, found := f.store.get(cmdKey("maincommand"))
		require.True(t, found)
		assert.Equal(t, domain.ValueSuccessfulCommand, rec.Value.Kind)
		assert.Equal(t, uint64(1), rec.BuiltAt)
		assert.Equal(t, uint64(1), rec.ComputedAt)

		ok, err = e.Build(context.Background(), "all")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, f.delegate.executions())
		assert.Equal(t, domain.CommandStatusUpToDate, f.delegate.statuses["maincommand"])
		assert.Equal(t, uint64(2), f.store.iteration)
		assert.Equal(t, [][]string{{"maincommand"}, {"maincommand"}}, f.tracer.plans)
	})
}

func TestEngine_BuildErrors(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manifest.AddCommand(&domain.CommandDecl{
		Name: domain.Intern("cc"),
		Tool: domain.Intern("missing"),
	}))
	f.command(t, "orphan", nil, nil, nil)
	e := f.engine()

	_, err := e.Build(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrNoTargetSpecified)

	_, err = e.Build(context.Background(), "nope")
	require.ErrorContains(t, err, domain.ErrUnknownTarget.Error())

	_, err = e.BuildKey(context.Background(), cmdKey("ghost"))
	require.ErrorContains(t, err, domain.ErrUnknownCommand.Error())

	_, err = e.BuildKey(context.Background(), cmdKey("cc"))
	require.ErrorContains(t, err, domain.ErrUnknownTool.Error())
	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "missing", zErr.Metadata()["tool"])

	f.tool.handle("orphan", func() ports.Command { return nil })
	_, err = e.BuildKey(context.Background(), cmdKey("orphan"))
	require.ErrorContains(t, err, domain.ErrNoCommandCreated.Error())

	_, err = e.BuildKey(context.Background(), domain.CustomTaskKey("unhandled", nil))
	require.ErrorContains(t, err, domain.ErrNoCustomTaskHandler.Error())

	_, found := f.store.get(cmdKey("cc"))
	assert.False(t, found)
}

func TestEngine_InputsDeliveredBeforeExecute(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("%d inputs", n), func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				f := newFixture(t)
				keys := make([]domain.BuildKey, n)
				for i := range n {
					name := fmt.Sprintf("dep-%d", i)
					f.command(t, name, nil, nil, succeed())
					keys[i] = cmdKey(name)
				}

				provided := make(map[uint]domain.BuildValue)
				seenAtExecute := -1
				f.command(t, "root", nil, nil, func() ports.Command {
					return &testCommand{
						start: func(ci ports.CommandInterface) {
							for i, k := range keys {
								ci.NeedsInput(k, uint(i))
							}
						},
						provide: func(_ ports.CommandInterface, value domain.BuildValue, inputID uint) {
							provided[inputID] = value
						},
						execute: func(context.Context, ports.CommandInterface) bool {
							seenAtExecute = len(provided)
							return true
						},
					}
				})

				value, err := f.engine().BuildKey(context.Background(), cmdKey("root"))
				require.NoError(t, err)
				assert.True(t, value.IsSuccessfulCommand())
				assert.Equal(t, n, seenAtExecute)
				for i := range n {
					assert.True(t, provided[uint(i)].IsSuccessfulCommand())
				}

				rec, found := f.store.get(cmdKey("root"))
				require.True(t, found)
				assert.Len(t, rec.Dependencies, n)
			})
		})
	}
}

func TestEngine_Chain(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		signature := []byte("v1")
		f.command(t, "A", nil, nil, needs(cmdKey("B")))
		f.command(t, "B", nil, nil, needs(cmdKey("C")))
		f.command(t, "C", nil, nil, needs(cmdKey("D")))
		f.command(t, "D", nil, nil, func() ports.Command { return &testCommand{signature: signature} })
		e := f.engine()

		_, err := e.BuildKey(context.Background(), cmdKey("A"))
		require.NoError(t, err)
		assert.Equal(t, []string{"D", "C", "B", "A"}, f.delegate.executions())

		_, err = e.BuildKey(context.Background(), cmdKey("A"))
		require.NoError(t, err)
		assert.Empty(t, f.delegate.executions())

		// D reruns but produces the same value, so nothing above it does.
		signature = []byte("v2")
		_, err = e.BuildKey(context.Background(), cmdKey("A"))
		require.NoError(t, err)
		assert.Equal(t, []string{"D"}, f.delegate.executions())

		rec, _ := f.store.get(cmdKey("D"))
		assert.Equal(t, uint64(1), rec.BuiltAt)
		assert.Equal(t, uint64(3), rec.ComputedAt)
	})
}

func TestEngine_Diamond(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.command(t, "A", nil, nil, needs(cmdKey("B"), cmdKey("C")))
		f.command(t, "B", nil, nil, needs(cmdKey("D")))
		f.command(t, "C", nil, nil, needs(cmdKey("D")))
		f.command(t, "D", nil, nil, succeed())

		_, err := f.engine().BuildKey(context.Background(), cmdKey("A"))
		require.NoError(t, err)

		started := f.delegate.executions()
		require.Len(t, started, 4)
		assert.Equal(t, "D", started[0])
		assert.ElementsMatch(t, []string{"B", "C"}, started[1:3])
		assert.Equal(t, "A", started[3])
	})
}

func TestEngine_Siblings(t *testing.T) {
	const siblings = 8

	tests := []struct {
		name    string
		jobs    int
		elapsed time.Duration
	}{
		{name: "one worker per sibling", jobs: siblings, elapsed: time.Second},
		{name: "two workers", jobs: 2, elapsed: 4 * time.Second},
		{name: "serial", jobs: 1, elapsed: siblings * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				f := newFixture(t)
				var running, peak atomic.Int32

				keys := make([]domain.BuildKey, siblings)
				for i := range siblings {
					name := fmt.Sprintf("sibling-%d", i)
					keys[i] = cmdKey(name)
					f.command(t, name, nil, nil, func() ports.Command {
						return &testCommand{execute: func(context.Context, ports.CommandInterface) bool {
							cur := running.Add(1)
							for {
								p := peak.Load()
								if cur <= p || peak.CompareAndSwap(p, cur) {
									break
								}
							}
							time.Sleep(time.Second)
							running.Add(-1)
							return true
						}}
					})
				}
				f.command(t, "root", nil, nil, needs(keys...))

				start := time.Now()
				value, err := f.engine(scheduler.WithParallelism(tt.jobs)).BuildKey(context.Background(), cmdKey("root"))
				require.NoError(t, err)
				assert.True(t, value.IsSuccessfulCommand())

				assert.Equal(t, tt.elapsed, time.Since(start))
				assert.Equal(t, int32(tt.jobs), peak.Load())

				started := f.delegate.executions()
				require.Len(t, started, siblings+1)
				assert.Equal(t, "root", started[siblings])
			})
		})
	}
}

func TestEngine_DiscoveredDependency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		header := domain.FileInfo{Inode: 7, Mode: 0o100644, Size: 10, ModTime: domain.FileTimestamp{Seconds: 1}}
		f.fs.set("header.h", header)
		f.command(t, "compile", nil, nil, func() ports.Command {
			return &testCommand{execute: func(_ context.Context, ci ports.CommandInterface) bool {
				ci.DiscoveredDependency(node("header.h"))
				return true
			}}
		})
		e := f.engine()

		_, err := e.BuildKey(context.Background(), cmdKey("compile"))
		require.NoError(t, err)
		assert.Equal(t, []string{"compile"}, f.delegate.executions())

		rec, found := f.store.get(cmdKey("compile"))
		require.True(t, found)
		assert.Equal(t, []domain.BuildKey{node("header.h")}, rec.Dependencies)

		nodeRec, found := f.store.get(node("header.h"))
		require.True(t, found)
		assert.True(t, nodeRec.Value.Equal(domain.ExistingInput(header)))

		_, err = e.BuildKey(context.Background(), cmdKey("compile"))
		require.NoError(t, err)
		assert.Empty(t, f.delegate.executions())

		header.ModTime.Seconds = 2
		f.fs.set("header.h", header)
		_, err = e.BuildKey(context.Background(), cmdKey("compile"))
		require.NoError(t, err)
		assert.Equal(t, []string{"compile"}, f.delegate.executions())
	})
}

func TestEngine_VanishedDependencyIsStale(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		gen := domain.CustomTaskKey("gen", nil)
		f.tool.custom = func(key domain.BuildKey) ports.Command {
			if key != gen {
				return nil
			}
			return &testCommand{}
		}
		f.command(t, "compile", nil, nil, func() ports.Command {
			return &testCommand{execute: func(_ context.Context, ci ports.CommandInterface) bool {
				ci.DiscoveredDependency(gen)
				return true
			}}
		})
		f.command(t, "consumer", nil, nil, needs(gen))
		e := f.engine()

		_, err := e.BuildKey(context.Background(), cmdKey("compile"))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"compile", gen.String()}, f.delegate.executions())

		f.tool.custom = nil

		_, err = e.BuildKey(context.Background(), cmdKey("compile"))
		require.NoError(t, err)
		assert.Equal(t, []string{"compile"}, f.delegate.executions())

		_, err = e.BuildKey(context.Background(), cmdKey("consumer"))
		require.ErrorContains(t, err, domain.ErrNoCustomTaskHandler.Error())
		assert.Empty(t, f.delegate.executions())
	})
}

func TestEngine_CustomTasksAreDistinct(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.tool.custom = func(key domain.BuildKey) ports.Command {
			if key.Name != "task" {
				return nil
			}
			return &valueCommand{value: domain.SuccessfulCommand(domain.FileInfo{Size: uint64(len(key.Data))})}
		}

		first := domain.CustomTaskKey("task", []byte("a"))
		second := domain.CustomTaskKey("task", []byte("bb"))
		provided := make(map[uint]domain.BuildValue)
		f.command(t, "root", nil, nil, func() ports.Command {
			return &testCommand{
				start: func(ci ports.CommandInterface) {
					ci.NeedsInput(first, 0)
					ci.NeedsInput(second, 1)
				},
				provide: func(_ ports.CommandInterface, value domain.BuildValue, inputID uint) {
					provided[inputID] = value
				},
			}
		})

		_, err := f.engine().BuildKey(context.Background(), cmdKey("root"))
		require.NoError(t, err)
		assert.Len(t, f.delegate.executions(), 3)

		assert.Equal(t, uint64(1), provided[0].OutputInfo(0).Size)
		assert.Equal(t, uint64(2), provided[1].OutputInfo(0).Size)

		recFirst, found := f.store.get(first)
		require.True(t, found)
		recSecond, found := f.store.get(second)
		require.True(t, found)
		assert.False(t, recFirst.Value.Equal(recSecond.Value))
	})
}

func TestEngine_CommandValue(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		want := domain.SuccessfulCommand(
			domain.FileInfo{Device: 1, Inode: 2, Mode: 0o100644, Size: 3, ModTime: domain.FileTimestamp{Seconds: 4, Nanoseconds: 5}},
			domain.FileInfo{Device: 6, Inode: 7, Mode: 0o100755, Size: 8, ModTime: domain.FileTimestamp{Seconds: 9}},
		)
		f.command(t, "enhanced", nil, nil, func() ports.Command { return &valueCommand{value: want} })
		e := f.engine()

		value, err := e.BuildKey(context.Background(), cmdKey("enhanced"))
		require.NoError(t, err)
		assert.True(t, want.Equal(value))
		assert.Equal(t, []string{"enhanced"}, f.delegate.executions())

		rec, found := f.store.get(cmdKey("enhanced"))
		require.True(t, found)
		assert.True(t, want.Equal(rec.Value))

		value, err = e.BuildKey(context.Background(), cmdKey("enhanced"))
		require.NoError(t, err)
		assert.True(t, want.Equal(value))
		assert.Empty(t, f.delegate.executions())
	})
}

func TestEngine_FailurePropagation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.command(t, "lib", nil, []domain.BuildKey{node("lib.a")}, fail())
		f.command(t, "app", []domain.BuildKey{node("lib.a")}, []domain.BuildKey{node("app")}, succeed())
		f.command(t, "docs", nil, nil, succeed())
		f.target(t, "all", node("app"), cmdKey("docs"))

		ok, err := f.engine().Build(context.Background(), "all")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.ElementsMatch(t, []string{"lib", "docs"}, f.delegate.executions())
		assert.Equal(t, 1, f.delegate.failures)
		assert.Equal(t, []domain.BuildKey{node("lib.a")}, f.delegate.missingInputs["app "+node("app").String()])
		assert.Equal(t, domain.CommandResultFailed, f.delegate.finished["lib"])
		assert.Equal(t, domain.CommandResultSkipped, f.delegate.finished["app"])

		lib, _ := f.store.get(cmdKey("lib"))
		assert.Equal(t, domain.ValueFailedCommand, lib.Value.Kind)
		app, _ := f.store.get(cmdKey("app"))
		assert.Equal(t, domain.ValuePropagatedFailureCommand, app.Value.Kind)
		docs, _ := f.store.get(cmdKey("docs"))
		assert.True(t, docs.Value.IsSuccessfulCommand())

		// A recorded failure is not retried until forced.
		ok, err = f.engine().Build(context.Background(), "all")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, f.delegate.executions())

		ok, err = f.engine(scheduler.WithForce(true)).Build(context.Background(), "all")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.ElementsMatch(t, []string{"lib", "docs"}, f.delegate.executions())
	})
}

func TestEngine_UnresolvedCycle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.command(t, "a", nil, nil, needs(cmdKey("b")))
		f.command(t, "b", nil, nil, needs(cmdKey("a")))

		_, err := f.engine().BuildKey(context.Background(), cmdKey("a"))
		require.ErrorContains(t, err, domain.ErrCycleDetected.Error())

		var zErr *zerr.Error
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, "command:a -> command:b -> command:a", zErr.Metadata()["cycle"])

		require.Len(t, f.delegate.cycles, 1)
		assert.Equal(t, []domain.BuildKey{cmdKey("a"), cmdKey("b"), cmdKey("a")}, f.delegate.cycles[0])
		assert.Empty(t, f.delegate.executions())
		assert.Empty(t, f.store.writes)
	})
}

func TestEngine_SelfInputCycle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.command(t, "self", nil, nil, needs(cmdKey("self")))

		_, err := f.engine().BuildKey(context.Background(), cmdKey("self"))
		require.ErrorContains(t, err, domain.ErrCycleDetected.Error())

		var zErr *zerr.Error
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, "command:self -> command:self", zErr.Metadata()["cycle"])

		require.Len(t, f.delegate.cycles, 1)
		assert.Equal(t, []domain.BuildKey{cmdKey("self"), cmdKey("self")}, f.delegate.cycles[0])
	})
}

func TestEngine_ResolvedCycle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		cyclic := false
		var fromA []domain.BuildValue

		f.command(t, "a", nil, nil, needs(cmdKey("b")))
		f.command(t, "b", nil, nil, func() ports.Command {
			if !cyclic {
				return &testCommand{}
			}
			return &testCommand{
				signature: []byte("v2"),
				start:     func(ci ports.CommandInterface) { ci.NeedsInput(cmdKey("a"), 0) },
				provide: func(_ ports.CommandInterface, value domain.BuildValue, _ uint) {
					fromA = append(fromA, value)
				},
			}
		})
		f.delegate.resolveCycle = func(_ []domain.BuildKey, candidate domain.BuildKey, action domain.CycleAction) bool {
			return candidate == cmdKey("a") && action == domain.CycleActionSupplyPriorValue
		}
		e := f.engine()

		_, err := e.BuildKey(context.Background(), cmdKey("a"))
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, f.delegate.executions())

		cyclic = true
		value, err := e.BuildKey(context.Background(), cmdKey("a"))
		require.NoError(t, err)
		assert.True(t, value.IsSuccessfulCommand())

		// b reruns on a's prior value; its result is unchanged, so a is reused.
		assert.Equal(t, []string{"b"}, f.delegate.executions())
		require.Len(t, fromA, 1)
		assert.True(t, fromA[0].IsSuccessfulCommand())
		require.Len(t, f.delegate.cycles, 1)

		rec, _ := f.store.get(cmdKey("b"))
		assert.Equal(t, []domain.BuildKey{cmdKey("a")}, rec.Dependencies)
	})
}

func TestEngine_MultipleProducers(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.command(t, "p1", nil, []domain.BuildKey{node("out.o")}, succeed())
		f.command(t, "p2", nil, []domain.BuildKey{node("out.o")}, succeed())
		f.target(t, "all", node("out.o"))

		ok, err := f.engine().Build(context.Background(), "all")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, []domain.BuildKey{node("out.o")}, f.delegate.multipleProducers)
		assert.Empty(t, f.delegate.executions())

		rec, found := f.store.get(node("out.o"))
		require.True(t, found)
		assert.Equal(t, domain.ValueFailedInput, rec.Value.Kind)
	})
}

func TestEngine_OutputChanges(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		out := domain.FileInfo{Inode: 3, Mode: 0o100644, Size: 100, ModTime: domain.FileTimestamp{Seconds: 10}}
		f.fs.set("a.o", out)
		f.command(t, "cc", nil, []domain.BuildKey{node("a.o")}, succeed())
		f.target(t, "all", node("a.o"))
		e := f.engine()

		ok, err := e.Build(context.Background(), "all")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []string{"cc"}, f.delegate.executions())

		rec, _ := f.store.get(cmdKey("cc"))
		assert.Equal(t, []domain.FileInfo{out}, rec.Value.OutputInfos)
		nodeRec, _ := f.store.get(node("a.o"))
		assert.True(t, nodeRec.Value.Equal(domain.ExistingInput(out)))

		_, err = e.Build(context.Background(), "all")
		require.NoError(t, err)
		assert.Empty(t, f.delegate.executions())

		out.Size = 0
		f.fs.set("a.o", out)
		_, err = e.Build(context.Background(), "all")
		require.NoError(t, err)
		assert.Equal(t, []string{"cc"}, f.delegate.executions())
	})
}

func TestEngine_MissingInput(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.command(t, "cc", []domain.BuildKey{node("a.c")}, nil, succeed())

		value, err := f.engine().BuildKey(context.Background(), cmdKey("cc"))
		require.NoError(t, err)
		assert.Equal(t, domain.ValuePropagatedFailureCommand, value.Kind)
		assert.Equal(t, []domain.BuildKey{node("a.c")}, f.delegate.missingInputs["cc "+cmdKey("cc").String()])
	})
}

func TestEngine_Checksums(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		src := domain.FileInfo{Inode: 1, Mode: 0o100644, Size: 5, ModTime: domain.FileTimestamp{Seconds: 1}}
		f.fs.set("a.c", src)
		f.fs.setSum("a.c", 1)
		f.command(t, "cc", []domain.BuildKey{node("a.c")}, nil, succeed())
		e := f.engine(scheduler.WithChecksums(true))

		_, err := e.BuildKey(context.Background(), cmdKey("cc"))
		require.NoError(t, err)
		assert.Equal(t, []string{"cc"}, f.delegate.executions())

		// Touching the file keeps its content.
		src.ModTime.Seconds = 2
		f.fs.set("a.c", src)
		_, err = e.BuildKey(context.Background(), cmdKey("cc"))
		require.NoError(t, err)
		assert.Empty(t, f.delegate.executions())

		f.fs.setSum("a.c", 2)
		_, err = e.BuildKey(context.Background(), cmdKey("cc"))
		require.NoError(t, err)
		assert.Equal(t, []string{"cc"}, f.delegate.executions())
	})
}

func TestEngine_ShouldCommandStart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		allow := false
		f.delegate.shouldStart = func(ports.CommandRef) bool { return allow }
		f.command(t, "gated", nil, nil, succeed())
		e := f.engine()

		value, err := e.BuildKey(context.Background(), cmdKey("gated"))
		require.NoError(t, err)
		assert.Equal(t, domain.ValueSkippedCommand, value.Kind)
		assert.Equal(t, domain.CommandResultSkipped, f.delegate.finished["gated"])
		assert.Empty(t, f.delegate.executions())

		allow = true
		value, err = e.BuildKey(context.Background(), cmdKey("gated"))
		require.NoError(t, err)
		assert.True(t, value.IsSuccessfulCommand())
		assert.Equal(t, []string{"gated"}, f.delegate.executions())
	})
}

func TestEngine_ProcessEvents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.command(t, "cc", nil, nil, func() ports.Command {
			return &testCommand{execute: func(_ context.Context, ci ports.CommandInterface) bool {
				proc := ci.ProcessStarted(42)
				ci.ProcessHadOutput(proc, []byte("hello"))
				ci.ProcessFinished(proc, domain.ProcessResult{Status: domain.ProcessSucceeded, PID: 42})
				ci.HadDiagnostic(domain.DiagnosticWarning, "careful")
				return true
			}}
		})

		_, err := f.engine().BuildKey(context.Background(), cmdKey("cc"))
		require.NoError(t, err)
		assert.Equal(t, "hello", string(f.delegate.output))
		assert.Equal(t, []string{
			"process started cc",
			"process finished cc",
			"warning cc: careful",
		}, f.delegate.messages)
	})
}

func TestEngine_Cancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.command(t, "slow", nil, nil, func() ports.Command {
			return &testCommand{execute: func(ctx context.Context, _ ports.CommandInterface) bool {
				<-ctx.Done()
				return false
			}}
		})

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			_, err := f.engine().BuildKey(ctx, cmdKey("slow"))
			errCh <- err
		}()

		synctest.Wait()
		assert.Equal(t, []string{"slow"}, f.delegate.executions())

		cancel()
		err := <-errCh
		require.ErrorContains(t, err, domain.ErrBuildCancelled.Error())

		_, found := f.store.get(cmdKey("slow"))
		assert.False(t, found)
		assert.Equal(t, domain.CommandResultCancelled, f.delegate.finished["slow"])
	})
}

func TestEngine_StoreWriteFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.store.recordErr = errors.New("disk full")
		f.command(t, "cc", nil, nil, succeed())

		_, err := f.engine().BuildKey(context.Background(), cmdKey("cc"))
		require.ErrorContains(t, err, domain.ErrStoreWriteFailed.Error())
	})
}

func TestEngine_MisuseIsReported(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		f.command(t, "late", nil, nil, func() ports.Command {
			return &testCommand{execute: func(_ context.Context, ci ports.CommandInterface) bool {
				// Inputs may no longer be requested once executing.
				ci.NeedsInput(domain.NodeKey("x"), 0)
				return true
			}}
		})

		value, err := f.engine().BuildKey(context.Background(), cmdKey("late"))
		require.NoError(t, err)
		assert.True(t, value.IsSuccessfulCommand())
		require.Len(t, f.delegate.messages, 1)
		assert.Contains(t, f.delegate.messages[0], "warning: command misused the engine interface")
	})
}
