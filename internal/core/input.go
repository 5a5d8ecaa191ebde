package core

// KeyKind tells the two shapes of a decoded key apart.
type KeyKind int

const (
	KeyRaw     KeyKind = iota // A key with no character, e.g. an arrow
	KeyUnicode                // A key that produced a character
)

// KeyCode identifies a raw (non-character) key.
type KeyCode int

const (
	KeyUnknown KeyCode = iota
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	KeyEscape
)

// String returns a human-readable name for the key code.
func (c KeyCode) String() string {
	switch c {
	case KeyArrowUp:
		return "ArrowUp"
	case KeyArrowDown:
		return "ArrowDown"
	case KeyArrowLeft:
		return "ArrowLeft"
	case KeyArrowRight:
		return "ArrowRight"
	case KeyEscape:
		return "Escape"
	default:
		return "Unknown"
	}
}

// DecodedKey is one keyboard interrupt after scancode decoding:
// either RawKey(code) or Unicode(char).
type DecodedKey struct {
	Kind KeyKind
	Code KeyCode // Valid when Kind == KeyRaw
	Char rune    // Valid when Kind == KeyUnicode
}

// RawKey builds a decoded raw key.
func RawKey(code KeyCode) DecodedKey {
	return DecodedKey{Kind: KeyRaw, Code: code}
}

// Unicode builds a decoded character key.
func Unicode(r rune) DecodedKey {
	return DecodedKey{Kind: KeyUnicode, Char: r}
}

// String returns the key in RawKey(..)/Unicode(..) notation for logs.
func (k DecodedKey) String() string {
	if k.Kind == KeyRaw {
		return "RawKey(" + k.Code.String() + ")"
	}
	return "Unicode(" + string(k.Char) + ")"
}

// Action is the game-level meaning of a key press.
type Action int

const (
	ActionNone    Action = iota
	ActionUp             // Up arrow - move paddle up
	ActionDown           // Down arrow - move paddle down
	ActionRestart        // Space - start a new match after game over
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionRestart:
		return "Restart"
	default:
		return "Unknown"
	}
}

// ActionFor maps a decoded key to its action. Keys without a meaning map to
// ActionNone.
func ActionFor(k DecodedKey) Action {
	switch k.Kind {
	case KeyRaw:
		switch k.Code {
		case KeyArrowUp:
			return ActionUp
		case KeyArrowDown:
			return ActionDown
		}
	case KeyUnicode:
		if k.Char == ' ' {
			return ActionRestart
		}
	}
	return ActionNone
}
