package shell

import (
	"sync"

	"github.com/creack/pty"
)

// terminals holds the pty size given to new processes and resizes the
// processes that are still running when it changes.
type terminals struct {
	mu   sync.Mutex
	rows int
	cols int
	live map[*process]struct{}
}

func newTerminals() *terminals {
	return &terminals{live: make(map[*process]struct{})}
}

// setSize records the size and applies it to every running pty.
// Processes that exit mid-resize are skipped.
func (t *terminals) setSize(rows, cols int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows, t.cols = rows, cols
	for p := range t.live {
		_ = p.Resize(rows, cols)
	}
}

// winsize returns the size for a new pty, or nil when none was set.
func (t *terminals) winsize() *pty.Winsize {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rows <= 0 || t.cols <= 0 {
		return nil
	}
	ws, err := toWinsize(t.rows, t.cols)
	if err != nil {
		return nil
	}
	return ws
}

// track registers p until the returned func is called.
func (t *terminals) track(p *process) func() {
	if p.ptmx == nil {
		return func() {}
	}
	t.mu.Lock()
	t.live[p] = struct{}{}
	t.mu.Unlock()
	return func() {
		t.mu.Lock()
		delete(t.live, p)
		t.mu.Unlock()
	}
}
