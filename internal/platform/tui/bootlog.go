package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pongos/internal/storage"
)

// Boot log layout constants
const (
	maxBoots      = 100 // Boots listed in the table
	chromeHeight  = 6   // Title, borders and help bar
	maxSerialRows = 0   // Serial lines loaded per boot, 0 = all
)

// BootLog is the read side of the serial capture database.
type BootLog interface {
	RecentBoots(limit int) ([]storage.BootRecord, error)
	SerialLines(bootID int64, limit int) ([]storage.SerialLine, error)
}

// BootLogKeyMap defines the key bindings for the boot log browser.
type BootLogKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Back   key.Binding
	Quit   key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k BootLogKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Back, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k BootLogKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Back, k.Quit},
	}
}

// DefaultBootLogKeyMap returns default key bindings.
func DefaultBootLogKeyMap() BootLogKeyMap {
	return BootLogKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "show serial output"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// BootLogModel browses recorded boots and their serial output.
type BootLogModel struct {
	log      BootLog
	boots    []storage.BootRecord
	table    table.Model
	output   viewport.Model
	showing  int64 // Boot whose serial output is open, 0 for the table
	help     help.Model
	keys     BootLogKeyMap
	err      error
	width    int
	height   int
	quitting bool
}

// NewBootLogModel creates a boot log browser and loads the recent boots.
func NewBootLogModel(bl BootLog, width, height int) BootLogModel {
	m := BootLogModel{
		log:    bl,
		keys:   DefaultBootLogKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.table = m.createTable()
	m.output = viewport.New(width, atLeastOne(height-chromeHeight))
	m.loadBoots()
	return m
}

// atLeastOne keeps component heights usable on tiny terminals.
func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// createTable creates the boots table sized to the window.
func (m *BootLogModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Boot", Width: 6},
		{Title: "Started", Width: 14},
		{Title: "Display", Width: 14},
		{Title: "Difficulty", Width: 10},
		{Title: "Exit", Width: 16},
		{Title: "Lines", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(atLeastOne(m.height-chromeHeight)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadBoots reloads the table rows from the database.
func (m *BootLogModel) loadBoots() {
	boots, err := m.log.RecentBoots(maxBoots)
	if err != nil {
		m.err = err
		m.boots = nil
	} else {
		m.boots = boots
	}

	rows := make([]table.Row, len(m.boots))
	for i, b := range m.boots {
		exit := b.ExitReason
		if exit == "" {
			exit = "-"
		}
		difficulty := b.Difficulty
		if difficulty == "" {
			difficulty = "custom"
		}
		rows[i] = table.Row{
			fmt.Sprintf("#%d", b.ID),
			b.StartedAt.Format("Jan 02 15:04"),
			b.Display,
			difficulty,
			exit,
			fmt.Sprintf("%d", b.SerialLines),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// openBoot loads the serial output of the selected boot into the viewport.
func (m *BootLogModel) openBoot() {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.boots) {
		return
	}
	id := m.boots[i].ID

	lines, err := m.log.SerialLines(id, maxSerialRows)
	if err != nil {
		m.err = err
		return
	}

	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%5d  %s\n", l.Seq, l.Text)
	}
	if len(lines) == 0 {
		b.WriteString("No serial output captured for this boot.")
	}
	m.output.SetContent(b.String())
	m.output.GotoTop()
	m.showing = id
}

// Init initializes the boot log model.
func (m BootLogModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the boot log.
func (m BootLogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Back):
			if m.showing != 0 {
				m.showing = 0
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Select):
			if m.showing == 0 {
				m.openBoot()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.loadBoots()
		m.output.Width = msg.Width
		m.output.Height = atLeastOne(msg.Height - chromeHeight)
		m.help.Width = msg.Width
		return m, nil
	}

	if m.showing != 0 {
		m.output, cmd = m.output.Update(msg)
		return m, cmd
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// Showing returns the boot whose serial output is open, or 0.
func (m BootLogModel) Showing() int64 {
	return m.showing
}

// View renders the boot log.
func (m BootLogModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		MarginBottom(1)

	title := "BOOT LOG"
	if m.showing != 0 {
		title = fmt.Sprintf("SERIAL OUTPUT - boot #%d", m.showing)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	switch {
	case m.err != nil:
		b.WriteString(boxStyle.Render("Cannot read the boot log: " + m.err.Error()))
	case m.showing != 0:
		b.WriteString(boxStyle.Render(m.output.View()))
	case len(m.boots) == 0:
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		b.WriteString(boxStyle.Render(emptyStyle.Render("No boots recorded yet.\nRun `pongos boot` to start the machine.")))
	default:
		b.WriteString(boxStyle.Render(m.table.View()))
	}

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// RunBootLog runs the boot log browser on the local terminal.
func RunBootLog(bl BootLog, width, height int) error {
	p := tea.NewProgram(
		NewBootLogModel(bl, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
