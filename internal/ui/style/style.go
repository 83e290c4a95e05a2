// Package style holds the colors and icons shared by the logger and the
// build renderer.
package style

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Ember  = lipgloss.Color("#E4572E")
	Slate  = lipgloss.Color("#667085")
	Ash    = lipgloss.Color("#98A2B3")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Skip    = "-"
)

// Styles for command result lines.
var (
	Success = lipgloss.NewStyle().Foreground(Green)
	Failure = lipgloss.NewStyle().Foreground(Red).Bold(true)
	Muted   = lipgloss.NewStyle().Foreground(Slate)
	Accent  = lipgloss.NewStyle().Foreground(Ember).Bold(true)
)
