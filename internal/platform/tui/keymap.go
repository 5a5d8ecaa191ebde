package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/pongos/internal/core"
)

// ConsoleKeyMap holds the bindings the console handles itself. Everything
// else is forwarded to the machine.
type ConsoleKeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Restart    key.Binding
	Screenshot key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ConsoleKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Restart, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ConsoleKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Restart},
		{k.Screenshot, k.Help, k.Quit},
	}
}

// DefaultConsoleKeyMap returns default key bindings.
func DefaultConsoleKeyMap() ConsoleKeyMap {
	return ConsoleKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "paddle up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "paddle down"),
		),
		Restart: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "new match"),
		),
		Screenshot: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "screenshot"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "power off"),
		),
	}
}

// KeyMapper translates Bubble Tea key messages into decoded keyboard
// interrupts, the way a PS/2 scancode decoder would report them.
type KeyMapper struct{}

// NewKeyMapper creates a new key mapper.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapKey returns the decoded key for msg. ok is false for keys a
// keyboard controller would not report, such as terminal control chords.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (k core.DecodedKey, ok bool) {
	switch msg.Type {
	case tea.KeyUp:
		return core.RawKey(core.KeyArrowUp), true
	case tea.KeyDown:
		return core.RawKey(core.KeyArrowDown), true
	case tea.KeyLeft:
		return core.RawKey(core.KeyArrowLeft), true
	case tea.KeyRight:
		return core.RawKey(core.KeyArrowRight), true
	case tea.KeyEscape:
		return core.RawKey(core.KeyEscape), true
	case tea.KeySpace:
		return core.Unicode(' '), true
	case tea.KeyEnter:
		return core.Unicode('\n'), true
	case tea.KeyRunes:
		// Alt chords and pasted text are not single key presses.
		if msg.Alt || msg.Paste || len(msg.Runes) != 1 {
			return core.DecodedKey{}, false
		}
		return core.Unicode(msg.Runes[0]), true
	}
	return core.DecodedKey{}, false
}
