// Package tui attaches a terminal to the virtual machine. It scans the
// framebuffer out as half-block cells and feeds key presses back in as
// keyboard interrupts, either on the local terminal or over SSH.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RefreshMsg asks the console to scan out a new frame.
type RefreshMsg time.Time

// refreshCmd schedules the next scanout at the given frame rate.
func refreshCmd(fps int) tea.Cmd {
	if fps <= 0 {
		fps = 30
	}
	interval := time.Second / time.Duration(fps)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return RefreshMsg(t)
	})
}
