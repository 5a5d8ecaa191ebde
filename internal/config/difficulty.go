package config

import "fmt"

// DifficultyPreset represents a named difficulty level.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// ParseDifficulty validates a preset name. The empty string means no preset.
func ParseDifficulty(name string) (DifficultyPreset, error) {
	switch p := DifficultyPreset(name); p {
	case "", DifficultyEasy, DifficultyNormal, DifficultyHard:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, name)
	}
}

// ApplyPongPreset tunes the opponent for a difficulty preset.
// Easy reacts to a stale player position and moves slowly, hard tracks the
// ball itself. An empty preset leaves the config untouched.
func ApplyPongPreset(cfg *PongConfig, preset DifficultyPreset) {
	switch preset {
	case DifficultyEasy:
		cfg.Opponent.Mode = OpponentDelayed
		cfg.Opponent.Delay = 16
		cfg.Geometry.OpponentSpeed = 80
	case DifficultyNormal:
		cfg.Opponent.Mode = OpponentDelayed
		cfg.Opponent.Delay = 8
		cfg.Geometry.OpponentSpeed = 60
	case DifficultyHard:
		cfg.Opponent.Mode = OpponentBall
		cfg.Geometry.OpponentSpeed = 45
	}
}
