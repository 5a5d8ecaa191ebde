package pong

import (
	"fmt"

	"github.com/vovakirdan/pongos/internal/core"
)

// MatchState is a copy of the game's observable state.
type MatchState struct {
	Tick          uint64
	Phase         Phase
	PlayerScore   int
	ComputerScore int
	GameOver      bool
	Ball          core.Rect
	BallVX        int
	BallVY        int
	Player        core.Rect
	Opponent      core.Rect
}

// State returns the current match state.
func (g *Game) State() MatchState {
	return MatchState{
		Tick:          g.ticks,
		Phase:         g.phase,
		PlayerScore:   g.playerScore,
		ComputerScore: g.computerScore,
		GameOver:      g.phase == PhaseGameOver,
		Ball:          g.ball.rect(),
		BallVX:        g.ball.vx,
		BallVY:        g.ball.vy,
		Player:        g.player.rect(),
		Opponent:      g.opponent.rect(),
	}
}

// Score formats the score as "player-computer".
func (s MatchState) Score() string {
	return fmt.Sprintf("%d-%d", s.PlayerScore, s.ComputerScore)
}

// Winner returns "player", "computer" or "" while the match is running.
func (s MatchState) Winner() string {
	if !s.GameOver {
		return ""
	}
	if s.PlayerScore > s.ComputerScore {
		return "player"
	}
	return "computer"
}
