package tui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pongos/internal/core"
)

// Fallback terminal size until the first WindowSizeMsg arrives.
const (
	defaultCols = 80
	defaultRows = 24
)

// screenshotScale enlarges saved screenshots so single pixels stay visible.
const screenshotScale = 2

// Console is the machine side of a terminal: a framebuffer to scan out and a
// keyboard to press. *machine.Machine satisfies it.
type Console interface {
	Scanout() *image.RGBA
	RaiseKey(k core.DecodedKey)
	DisplayString() string
	Ticks() uint64
}

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// ConsoleOption configures a ConsoleModel.
type ConsoleOption func(*ConsoleModel)

// WithSize sets the terminal size used before the first resize event.
func WithSize(cols, rows int) ConsoleOption {
	return func(m *ConsoleModel) {
		if cols > 0 && rows > 0 {
			m.width, m.height = cols, rows
		}
	}
}

// WithScreenshotDir sets where ctrl+s saves screenshots. An empty dir
// disables screenshots.
func WithScreenshotDir(dir string) ConsoleOption {
	return func(m *ConsoleModel) {
		m.screenshotDir = dir
	}
}

// ConsoleModel is the Bubble Tea model of one terminal attached to the
// machine. Several consoles may share one machine.
type ConsoleModel struct {
	console       Console
	fps           int
	keys          ConsoleKeyMap
	mapper        *KeyMapper
	help          help.Model
	width         int
	height        int
	frame         string
	status        string
	screenshotDir string
	quitting      bool
}

// NewConsoleModel creates a console refreshing at fps frames per second.
func NewConsoleModel(console Console, fps int, opts ...ConsoleOption) ConsoleModel {
	m := ConsoleModel{
		console: console,
		fps:     fps,
		keys:    DefaultConsoleKeyMap(),
		mapper:  NewKeyMapper(),
		help:    help.New(),
		width:   defaultCols,
		height:  defaultRows,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.help.Width = m.width
	return m
}

// Init starts the refresh loop.
func (m ConsoleModel) Init() tea.Cmd {
	return refreshCmd(m.fps)
}

// Update handles messages and updates the model state.
func (m ConsoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case RefreshMsg:
		m.frame = RenderFrame(m.console.Scanout(), m.width, m.frameRows())
		return m, refreshCmd(m.fps)
	}

	return m, nil
}

// handleKey processes keyboard input. Console bindings are handled here;
// every other key becomes a keyboard interrupt.
func (m ConsoleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Screenshot):
		m.status = m.saveScreenshot(time.Now())
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if k, ok := m.mapper.MapKey(msg); ok {
		m.console.RaiseKey(k)
	}
	return m, nil
}

// saveScreenshot writes the current framebuffer and returns a status line.
func (m ConsoleModel) saveScreenshot(now time.Time) string {
	if m.screenshotDir == "" {
		return "screenshots are disabled on this console"
	}
	path := ScreenshotPath(m.screenshotDir, now)
	caption := fmt.Sprintf("%s tick %d", m.console.DisplayString(), m.console.Ticks())
	if err := SaveScreenshot(m.console.Scanout(), path, screenshotScale, caption); err != nil {
		return err.Error()
	}
	return "saved " + path
}

// frameRows is the number of rows left for the framebuffer once the footer
// is drawn.
func (m ConsoleModel) frameRows() int {
	footer := 1 + lipgloss.Height(m.help.View(m.keys))
	return core.Max(m.height-footer, 1)
}

// Status returns the last console message, such as a screenshot path.
func (m ConsoleModel) Status() string {
	return m.status
}

// IsQuitting returns true once the user detached the console.
func (m ConsoleModel) IsQuitting() bool {
	return m.quitting
}

// View renders the current state to a string for display.
func (m ConsoleModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.frame)
	b.WriteString("\n")

	status := fmt.Sprintf("%s  tick %d", m.console.DisplayString(), m.console.Ticks())
	if m.status != "" {
		status += "  " + m.status
	}
	b.WriteString(statusStyle.Render(status))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// Run attaches a console to the local terminal and blocks until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, console Console, fps int, opts ...ConsoleOption) error {
	model := NewConsoleModel(console, fps, opts...)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
