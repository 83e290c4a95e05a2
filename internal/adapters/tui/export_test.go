package tui

import tea "github.com/charmbracelet/bubbletea"

// FinishedForTest returns the message Renderer.Stop sends.
func FinishedForTest() tea.Msg {
	return msgFinished{}
}
