package tui

import (
	"bytes"
	"strings"
	"sync"

	"github.com/vito/midterm"
)

// Pane is a scrollable virtual terminal holding the output of one command.
// It follows new output while scrolled to the bottom.
type Pane struct {
	mu     sync.Mutex
	vt     *midterm.Terminal
	offset int
	rows   int
	buf    bytes.Buffer
}

// NewPane creates an empty Pane one row high.
func NewPane() *Pane {
	return &Pane{vt: midterm.NewAutoResizingTerminal(), rows: 1}
}

// Write feeds raw command output, escape sequences included, to the terminal.
func (p *Pane) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	follow := p.offset >= p.maxOffsetLocked()
	n, err := p.vt.Write(data)
	if follow {
		p.offset = p.maxOffsetLocked()
	}
	return n, err
}

// Resize sets the visible rows and the column count output wraps at.
func (p *Pane) Resize(rows, cols int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	follow := p.offset >= p.maxOffsetLocked()
	p.rows = max(rows, 1)
	p.vt.ResizeX(max(cols, 1))
	if follow {
		p.offset = p.maxOffsetLocked()
	}
	p.clampLocked()
}

// Scroll moves the view by delta rows.
func (p *Pane) Scroll(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset += delta
	p.clampLocked()
}

// ScrollToTop shows the first rows.
func (p *Pane) ScrollToTop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = 0
}

// ScrollToEnd shows the last rows and resumes following.
func (p *Pane) ScrollToEnd() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = p.maxOffsetLocked()
}

// Offset is the first visible row.
func (p *Pane) Offset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

// Rows is the number of visible rows.
func (p *Pane) Rows() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rows
}

// MaxOffset is the offset that shows the last row.
func (p *Pane) MaxOffset() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxOffsetLocked()
}

// View renders the visible rows.
func (p *Pane) View() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderLocked(p.offset, p.rows)
}

// Tail renders the last n rows regardless of the scroll position.
func (p *Pane) Tail(n int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	from := max(p.vt.UsedHeight()-n, 0)
	return p.renderLocked(from, n)
}

func (p *Pane) renderLocked(from, n int) string {
	p.buf.Reset()
	used := p.vt.UsedHeight()
	for row := from; row < from+n && row < used; row++ {
		if row > from {
			p.buf.WriteByte('\n')
		}
		_ = p.vt.RenderLine(&p.buf, row)
	}
	return strings.TrimRight(p.buf.String(), "\n")
}

func (p *Pane) clampLocked() {
	p.offset = min(max(p.offset, 0), p.maxOffsetLocked())
}

func (p *Pane) maxOffsetLocked() int {
	return max(p.vt.UsedHeight()-p.rows, 0)
}
