package shell_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// recorder is a CommandInterface that keeps what a command reports.
type recorder struct {
	mu       sync.Mutex
	output   bytes.Buffer
	started  []domain.ProcessHandle
	finished []domain.ProcessResult
	errors   []string
	diags    []string
}

func (r *recorder) NeedsInput(domain.BuildKey, uint) {}
func (r *recorder) DiscoveredDependency(domain.BuildKey) {}

func (r *recorder) HadDiagnostic(kind domain.DiagnosticKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, kind.String()+": "+message)
}

func (r *recorder) ProcessStarted(pid int) domain.ProcessHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	proc := domain.ProcessHandle{ID: uint64(len(r.started) + 1), PID: pid}
	r.started = append(r.started, proc)
	return proc
}

func (r *recorder) ProcessHadOutput(_ domain.ProcessHandle, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.output.Write(data)
}

func (r *recorder) ProcessHadError(_ domain.ProcessHandle, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

func (r *recorder) ProcessFinished(_ domain.ProcessHandle, result domain.ProcessResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, result)
}

func newTools(t *testing.T, dir string, cmds ...*domain.CommandDecl) map[string]ports.Tool {
	t.Helper()
	m := domain.NewManifest(domain.Client{Name: "test"})
	m.AddTool(domain.ToolDecl{Name: domain.Intern(shell.ShellToolName)})
	for _, cmd := range cmds {
		cmd.Tool = domain.Intern(shell.ShellToolName)
		require.NoError(t, m.AddCommand(cmd))
	}

	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	return shell.NewFactory(log).Tools(m, dir)
}

func decl(name string, args ...string) *domain.CommandDecl {
	return &domain.CommandDecl{Name: domain.Intern(name), Args: args}
}

func run(t *testing.T, ctx context.Context, tool ports.Tool, name string) (bool, *recorder) {
	t.Helper()
	cmd := tool.CreateCommand(name)
	require.NotNil(t, cmd)
	rec := &recorder{}
	return cmd.Execute(ctx, rec), rec
}

func TestShellTool_Execute(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tools := newTools(t, dir,
		decl("multiline", "sh", "-c", "echo line1; echo line2"),
		decl("fragmented", "sh", "-c", "printf part1; sleep 0.1; echo part2"),
		decl("exit3", "sh", "-c", "echo boom; exit 3"),
		decl("touch", "sh", "-c", "echo built > out.txt"),
		decl("empty"),
	)
	sh := tools[shell.ShellToolName]

	t.Run("multi-line output", func(t *testing.T) {
		t.Parallel()
		ok, rec := run(t, context.Background(), sh, "multiline")
		assert.True(t, ok)
		assert.Contains(t, rec.output.String(), "line1")
		assert.Contains(t, rec.output.String(), "line2")
		require.Len(t, rec.started, 1)
		require.Len(t, rec.finished, 1)
		assert.Equal(t, domain.ProcessSucceeded, rec.finished[0].Status)
		assert.Equal(t, rec.started[0].PID, rec.finished[0].PID)
	})

	t.Run("fragmented output", func(t *testing.T) {
		t.Parallel()
		ok, rec := run(t, context.Background(), sh, "fragmented")
		assert.True(t, ok)
		assert.Contains(t, rec.output.String(), "part1")
		assert.Contains(t, rec.output.String(), "part2")
	})

	t.Run("non-zero exit", func(t *testing.T) {
		t.Parallel()
		ok, rec := run(t, context.Background(), sh, "exit3")
		assert.False(t, ok)
		assert.Contains(t, rec.output.String(), "boom")
		require.Len(t, rec.finished, 1)
		assert.Equal(t, domain.ProcessFailed, rec.finished[0].Status)
		assert.Equal(t, 3, rec.finished[0].ExitCode)
	})

	t.Run("runs in working directory", func(t *testing.T) {
		t.Parallel()
		ok, _ := run(t, context.Background(), sh, "touch")
		require.True(t, ok)
		data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
		require.NoError(t, err)
		assert.Equal(t, "built\n", string(data))
	})

	t.Run("empty command line", func(t *testing.T) {
		t.Parallel()
		ok, rec := run(t, context.Background(), sh, "empty")
		assert.True(t, ok)
		assert.Empty(t, rec.started)
	})

	t.Run("undeclared command", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, sh.CreateCommand("missing"))
		assert.Nil(t, sh.CreateCustomCommand(domain.CustomTaskKey("dyn", nil)))
	})
}

func TestShellTool_Environment(t *testing.T) {
	t.Parallel()
	cmd := decl("env", "sh", "-c", "echo CC=$CC SECRET=$KILN_TEST_SECRET")
	cmd.Env = map[string]string{"CC": "clang"}
	tools := newTools(t, t.TempDir(), cmd)

	ok, rec := run(t, context.Background(), tools[shell.ShellToolName], "env")
	require.True(t, ok)
	assert.Contains(t, rec.output.String(), "CC=clang")
	assert.Regexp(t, `SECRET=\r?\n`, rec.output.String())
}

func TestShellTool_StartFailure(t *testing.T) {
	t.Parallel()
	tools := newTools(t, t.TempDir(), decl("bogus", "/nonexistent/kiln-tool"))

	ok, rec := run(t, context.Background(), tools[shell.ShellToolName], "bogus")
	assert.False(t, ok)
	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], domain.ErrProcessStartFailed.Error())
	require.Len(t, rec.diags, 1)
	assert.Empty(t, rec.started)
}

func TestShellTool_Cancellation(t *testing.T) {
	t.Parallel()
	tools := newTools(t, t.TempDir(), decl("sleep", "sleep", "30"))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	ok, rec := run(t, ctx, tools[shell.ShellToolName], "sleep")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 10*time.Second)
	require.Len(t, rec.finished, 1)
	assert.Equal(t, domain.ProcessCancelled, rec.finished[0].Status)
}

func TestShellTool_Signature(t *testing.T) {
	t.Parallel()
	a := decl("a", "cc", "-c", "a.c")
	a.Env = map[string]string{"CC": "clang", "AR": "ar"}
	b := decl("b", "cc", "-c", "a.c")
	b.Env = map[string]string{"AR": "ar", "CC": "clang"}
	c := decl("c", "cc", "-c", "b.c")
	d := decl("d", "cc", "-c", "a.c")
	d.Env = map[string]string{"CC": "gcc", "AR": "ar"}
	tools := newTools(t, t.TempDir(), a, b, c, d)
	sh := tools[shell.ShellToolName]

	sig := func(name string) []byte { return sh.CreateCommand(name).Signature() }
	assert.Equal(t, sig("a"), sig("b"))
	assert.NotEqual(t, sig("a"), sig("c"))
	assert.NotEqual(t, sig("a"), sig("d"))
}

func TestPhonyTool(t *testing.T) {
	t.Parallel()
	phony := newTools(t, t.TempDir())[shell.PhonyToolName]

	cmd := phony.CreateCommand("all")
	require.NotNil(t, cmd)
	assert.Empty(t, cmd.Signature())
	assert.True(t, cmd.Execute(context.Background(), &recorder{}))
	assert.Nil(t, phony.CreateCustomCommand(domain.CustomTaskKey("dyn", nil)))
}
