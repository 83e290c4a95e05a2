package watcher

import (
	"slices"
	"sync"
	"time"
)

// DefaultDebounceWindow is how long the watch loop waits for changes to settle.
const DefaultDebounceWindow = 100 * time.Millisecond

// Debouncer coalesces bursts of changed paths into one callback.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer
	window   time.Duration
	callback func(paths []string)
}

// NewDebouncer creates a Debouncer that calls callback once no path has been
// added for window. Paths are passed sorted and without duplicates.
func NewDebouncer(window time.Duration, callback func(paths []string)) *Debouncer {
	return &Debouncer{
		pending:  make(map[string]struct{}),
		window:   window,
		callback: callback,
	}
}

// Add records path and restarts the window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer) fire() {
	paths := d.take()
	if len(paths) > 0 && d.callback != nil {
		d.callback(paths)
	}
}

// Flush runs the callback for pending paths now and waits for it to return.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil && !d.timer.Stop() {
		// Already firing.
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.fire()
}

// Stop drops pending paths without calling the callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	clear(d.pending)
}

func (d *Debouncer) take() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timer = nil
	if len(d.pending) == 0 {
		return nil
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	clear(d.pending)
	slices.Sort(paths)
	return paths
}
