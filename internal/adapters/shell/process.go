package shell

import (
	"context"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// process is a spawned command whose output is being copied.
type process struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	ioDone <-chan struct{}
}

// Wait waits for the command to exit and for its output to be drained.
func (p *process) Wait() error {
	err := p.cmd.Wait()
	<-p.ioDone
	return err
}

// PID returns the operating system process id.
func (p *process) PID() int {
	return p.cmd.Process.Pid
}

// Resize changes the terminal size of a pty-backed process.
func (p *process) Resize(rows, cols int) error {
	if p.ptmx == nil {
		return nil
	}
	ws, err := toWinsize(rows, cols)
	if err != nil {
		return err
	}
	return pty.Setsize(p.ptmx, ws)
}

func toWinsize(rows, cols int) (*pty.Winsize, error) {
	if rows > math.MaxUint16 || cols > math.MaxUint16 || rows < 0 || cols < 0 {
		return nil, zerr.With(zerr.With(domain.ErrInvalidTerminalSize, "rows", rows), "cols", cols)
	}
	return &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}, nil
}

// start launches args in a pty of size ws, falling back to plain pipes where
// no pty can be allocated. A nil ws keeps the default size. Combined output
// is copied to out.
func start(ctx context.Context, args []string, env map[string]string, dir string, ws *pty.Winsize, out io.Writer) (*process, error) {
	name := args[0]
	cmdEnv := resolveEnvironment(os.Environ(), env)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, args[1:]...) //nolint:gosec // user provided command
	cmd.Args[0] = name
	cmd.Dir = dir
	cmd.Env = cmdEnv

	ptmx, err := pty.StartWithSize(cmd, ws)
	if err != nil {
		return startPiped(ctx, args, cmdEnv, executable, dir, out)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		// The pty merges stdout and stderr.
		_, _ = io.Copy(out, ptmx)
	}()

	return &process{cmd: cmd, ptmx: ptmx, ioDone: ioDone}, nil
}

func startPiped(ctx context.Context, args, env []string, executable, dir string, out io.Writer) (*process, error) {
	cmd := exec.CommandContext(ctx, executable, args[1:]...) //nolint:gosec // user provided command
	cmd.Args[0] = args[0]
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrProcessStartFailed.Error()), "command", args[0])
	}
	done := make(chan struct{})
	close(done)
	return &process{cmd: cmd, ioDone: done}, nil
}

// allowListedEnvVars are the system environment variables a command inherits.
var allowListedEnvVars = map[string]struct{}{
	"HOME":   {},
	"TERM":   {},
	"USER":   {},
	"PATH":   {},
	"TMPDIR": {},
}

// resolveEnvironment keeps the allow-listed system variables and applies the
// command's overrides. The result is sorted.
func resolveEnvironment(sysEnv []string, cmdEnv map[string]string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}
	for k, v := range cmdEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the PATH of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
