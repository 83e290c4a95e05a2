package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/ui/style"
)

// failureTailRows is how much output of each failed command the final view keeps.
const failureTailRows = 10

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Ember).
			Foreground(lipgloss.Color("#FFFFFF"))

	failureTitleStyle = titleStyle.Background(style.Red)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(style.Slate).
			PaddingLeft(1)

	pendingStyle = style.Muted
	runningStyle = style.Accent
	doneStyle    = style.Success
	failedStyle  = style.Failure
)

// View implements tea.Model. Once the build is over only a summary remains
// on screen.
func (m *Model) View() string {
	if m.Finished || m.Interrupted {
		return m.summary()
	}
	if m.listHeight == 0 {
		return "Starting..."
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.commandList(), m.outputPane())
}

func (m *Model) commandList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("COMMANDS") + "\n\n")

	end := min(m.listOffset+m.listHeight, len(m.Commands))
	for i := m.listOffset; i < end; i++ {
		b.WriteString(m.row(i, m.Commands[i]) + "\n")
	}
	return lipgloss.NewStyle().Width(m.listWidth).Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) row(i int, n *CommandNode) string {
	cursor := "  "
	if i == m.Selected {
		cursor = runningStyle.Render("> ")
	}
	text := icon(n.Status) + " " + n.Name
	if n.Status == StatusDone || n.Status == StatusFailed {
		text += " " + n.Elapsed.Round(time.Millisecond).String()
	}
	return cursor + statusStyle(n.Status).Render(text)
}

func (m *Model) outputPane() string {
	n := m.selectedNode()
	if n == nil {
		return paneStyle.Render(titleStyle.Render("OUTPUT (waiting)"))
	}

	mode := "manual"
	if m.Follow {
		mode = "following"
	}
	parts := []string{titleStyle.Render(fmt.Sprintf("OUTPUT: %s (%s)", n.Name, mode))}
	if deps := m.Deps[n.Name]; len(deps) > 0 {
		parts = append(parts, style.Muted.Render("after "+strings.Join(deps, ", ")))
	}
	parts = append(parts, n.Output.View())
	return paneStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *Model) summary() string {
	var b strings.Builder
	executed, failed := 0, 0
	for _, n := range m.Commands {
		switch n.Status {
		case StatusDone, StatusRunning:
			executed++
		case StatusFailed:
			executed++
			failed++
			b.WriteString(failureTitleStyle.Render("FAILED: "+n.Name) + "\n")
			if tail := n.Output.Tail(failureTailRows); tail != "" {
				b.WriteString(tail + "\n")
			}
			if n.Err != nil {
				b.WriteString(failedStyle.Render(n.Err.Error()) + "\n")
			}
		case StatusPending:
		}
	}

	if executed > 0 {
		line := fmt.Sprintf("%d command(s) executed", executed)
		if failed > 0 {
			line += fmt.Sprintf(", %d failed", failed)
			b.WriteString(failedStyle.Render(line) + "\n")
		} else {
			b.WriteString(pendingStyle.Render(line) + "\n")
		}
	}
	if m.Interrupted {
		b.WriteString(failedStyle.Render("build interrupted") + "\n")
	}
	return b.String()
}

func icon(s Status) string {
	switch s {
	case StatusRunning:
		return style.Dot
	case StatusDone:
		return style.Check
	case StatusFailed:
		return style.Cross
	default:
		return "○"
	}
}

func statusStyle(s Status) lipgloss.Style {
	switch s {
	case StatusRunning:
		return runningStyle
	case StatusDone:
		return doneStyle
	case StatusFailed:
		return failedStyle
	default:
		return pendingStyle
	}
}
