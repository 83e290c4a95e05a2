// Package tui renders build progress as an interactive terminal UI: the
// list of commands next to the live output of the selected one.
package tui

import (
	"io"
	"os"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/ui/output"
)

const (
	listWidthPercent = 30
	minListWidth     = 16
	// headerHeight covers the pane titles and the blank line below them.
	headerHeight = 2
	// paneChrome is the width taken by the output pane's border and padding.
	paneChrome = 2
)

// Status is the state of a command row.
type Status int

const (
	// StatusPending marks a planned command that has not started.
	StatusPending Status = iota
	// StatusRunning marks an executing command.
	StatusRunning
	// StatusDone marks a command that succeeded.
	StatusDone
	// StatusFailed marks a command that failed.
	StatusFailed
)

// CommandNode is one row of the command list.
type CommandNode struct {
	Name    string
	Status  Status
	Output  *Pane
	Err     error
	Elapsed time.Duration

	started time.Time
}

// Model is the bubbletea model of one build.
type Model struct {
	Commands []*CommandNode
	Deps     map[string][]string
	Targets  []string
	Selected int
	// Follow moves the selection to each command that starts.
	Follow bool
	// Finished is set once the build is over.
	Finished bool
	// Interrupted is set when the user quit before the build finished.
	Interrupted bool

	byName     map[string]*CommandNode
	bySpan     map[string]*CommandNode
	listOffset int
	listHeight int
	listWidth  int
	paneRows   int
	paneCols   int
	sizer      ports.TerminalSizer
}

// NewModel creates a Model whose colors suit w.
func NewModel(w io.Writer) *Model {
	if w == nil {
		w = os.Stderr
	}
	lipgloss.SetColorProfile(output.ProfileFor(w))
	return &Model{
		Follow: true,
		byName: make(map[string]*CommandNode),
		bySpan: make(map[string]*CommandNode),
	}
}

// WithTerminalSizer reports the output pane size to s whenever the window changes.
func (m *Model) WithTerminalSizer(s ports.TerminalSizer) *Model {
	m.sizer = s
	return m
}

// Command returns the row of the named command.
func (m *Model) Command(name string) (*CommandNode, bool) {
	n, ok := m.byName[name]
	return n, ok
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case MsgPlan:
		m.Deps = msg.Deps
		m.Targets = msg.Targets
		for _, name := range msg.Commands {
			m.node(name)
		}
	case MsgCommandStart:
		n := m.node(msg.Name)
		n.Status = StatusRunning
		n.started = msg.StartTime
		m.bySpan[msg.SpanID] = n
		if m.Follow {
			m.selectNode(n)
		}
	case MsgCommandLog:
		if n, ok := m.bySpan[msg.SpanID]; ok {
			_, _ = n.Output.Write(msg.Data)
		}
	case MsgCommandComplete:
		n, ok := m.bySpan[msg.SpanID]
		if !ok {
			break
		}
		n.Elapsed = msg.EndTime.Sub(n.started)
		n.Err = msg.Err
		n.Status = StatusDone
		if msg.Err != nil {
			n.Status = StatusFailed
		}
	case msgFinished:
		m.Finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		if !m.Finished {
			m.Interrupted = true
		}
		return tea.Quit
	case "k", "up":
		m.moveSelection(-1)
	case "j", "down":
		m.moveSelection(1)
	case "esc":
		m.Follow = true
		for _, n := range m.Commands {
			if n.Status == StatusRunning {
				m.selectNode(n)
				break
			}
		}
	}

	pane := m.selectedPane()
	if pane == nil {
		return nil
	}
	switch msg.String() {
	case "pgup":
		pane.Scroll(-pane.Rows())
	case "pgdown":
		pane.Scroll(pane.Rows())
	case "home":
		pane.ScrollToTop()
	case "end":
		pane.ScrollToEnd()
	}
	return nil
}

// node returns the row of name, appending one for commands outside the plan.
func (m *Model) node(name string) *CommandNode {
	if n, ok := m.byName[name]; ok {
		return n
	}
	n := &CommandNode{Name: name, Status: StatusPending, Output: NewPane()}
	if m.paneRows > 0 {
		n.Output.Resize(m.paneRows, m.paneCols)
	}
	m.Commands = append(m.Commands, n)
	m.byName[name] = n
	return n
}

func (m *Model) moveSelection(delta int) {
	i := m.Selected + delta
	if i < 0 || i >= len(m.Commands) {
		return
	}
	m.Selected = i
	m.Follow = false
	m.ensureVisible()
}

func (m *Model) selectNode(n *CommandNode) {
	if i := slices.Index(m.Commands, n); i >= 0 {
		m.Selected = i
		m.ensureVisible()
	}
}

func (m *Model) selectedNode() *CommandNode {
	if m.Selected < 0 || m.Selected >= len(m.Commands) {
		return nil
	}
	return m.Commands[m.Selected]
}

func (m *Model) selectedPane() *Pane {
	if n := m.selectedNode(); n != nil {
		return n.Output
	}
	return nil
}

func (m *Model) ensureVisible() {
	if m.listHeight <= 0 {
		return
	}
	if m.Selected < m.listOffset {
		m.listOffset = m.Selected
	} else if m.Selected >= m.listOffset+m.listHeight {
		m.listOffset = m.Selected - m.listHeight + 1
	}
}

func (m *Model) resize(width, height int) {
	m.listWidth = max(width*listWidthPercent/100, minListWidth)
	m.listHeight = max(height-headerHeight, 1)
	m.paneRows = max(height-headerHeight, 1)
	m.paneCols = max(width-m.listWidth-paneChrome, 1)
	for _, n := range m.Commands {
		n.Output.Resize(m.paneRows, m.paneCols)
	}
	if m.sizer != nil {
		m.sizer.SetTerminalSize(m.paneRows, m.paneCols)
	}
	m.ensureVisible()
}
