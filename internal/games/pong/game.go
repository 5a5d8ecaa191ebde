// Package pong implements the kernel's pong simulation: the player's paddle
// on the left, a computer paddle on the right, one ball and a first-to-N
// score. The game advances one fixed step per timer tick and reacts to
// keyboard input between ticks.
package pong

import (
	"errors"
	"fmt"

	"github.com/vovakirdan/pongos/internal/config"
	"github.com/vovakirdan/pongos/internal/core"
	"github.com/vovakirdan/pongos/internal/surface"
)

// ErrScreenTooSmall is returned when the configured divisors leave an
// entity with zero size or speed on the given screen.
var ErrScreenTooSmall = errors.New("pong: screen too small for configured geometry")

// spinFallback replaces a zero spin so the ball never travels flat forever.
const spinFallback = 1

// Phase is the match state machine.
type Phase int

const (
	PhasePlaying Phase = iota
	PhaseGameOver
)

// String returns the phase name.
func (p Phase) String() string {
	if p == PhaseGameOver {
		return "GameOver"
	}
	return "Playing"
}

// Allocator hands out fixed memory for the game's buffers.
// heap.Arena satisfies it.
type Allocator interface {
	Allocate(size, align uintptr) (uintptr, error)
	Bytes(addr, size uintptr) ([]byte, error)
}

type paddle struct {
	x, y  int
	w, h  int
	speed int
}

func (p paddle) rect() core.Rect {
	return core.NewRect(p.x, p.y, p.w, p.h)
}

func (p paddle) centerY() int {
	return p.y + p.h/2
}

type ball struct {
	x, y   int
	size   int
	vx, vy int
}

func (b ball) rect() core.Rect {
	return core.NewRect(b.x, b.y, b.size, b.size)
}

// Game implements the pong rules.
type Game struct {
	width, height int
	cfg           config.PongConfig

	player   paddle
	opponent paddle
	ball     ball

	playerScore   int
	computerScore int
	phase         Phase

	history *history
	ticks   uint64
}

// New creates a game for a width x height screen. When alloc is non-nil the
// player history ring is placed in its memory.
func New(width, height int, cfg config.PongConfig, alloc Allocator) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pong: %w", err)
	}

	geo := cfg.Geometry
	paddleW := width / geo.PaddleWidth
	paddleH := height / geo.PaddleHeight
	g := &Game{
		width:  width,
		height: height,
		cfg:    cfg,
		player: paddle{
			x:     width / geo.PaddleOffset,
			w:     paddleW,
			h:     paddleH,
			speed: height / geo.PlayerSpeed,
		},
		opponent: paddle{
			x:     width - width/geo.PaddleOffset - paddleW,
			w:     paddleW,
			h:     paddleH,
			speed: height / geo.OpponentSpeed,
		},
		ball: ball{
			size: width / geo.BallSize,
			vx:   cfg.Ball.SpeedX,
			vy:   cfg.Ball.SpeedY,
		},
	}
	if paddleW <= 0 || paddleH <= 0 || paddleH > height || g.ball.size <= 0 ||
		g.player.speed <= 0 || g.opponent.speed <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrScreenTooSmall, width, height)
	}

	g.center()

	h, err := newHistory(cfg.Opponent.Delay, alloc)
	if err != nil {
		return nil, fmt.Errorf("pong: history buffer: %w", err)
	}
	g.history = h
	g.history.fill(g.player.y)

	return g, nil
}

// center puts the ball and both paddles in their starting positions.
func (g *Game) center() {
	g.ball.x = g.width/2 - g.ball.size/2
	g.ball.y = g.height/2 - g.ball.size/2
	g.player.y = g.height/2 - g.player.h/2
	g.opponent.y = g.height/2 - g.opponent.h/2
}

// reset re-serves after a point. Scores and the phase are kept.
func (g *Game) reset() {
	g.center()

	// Serve toward the trailing side; on a tie, toward the opponent.
	dir := 1
	if g.playerScore < g.computerScore {
		dir = -1
	}
	g.ball.vx = dir * core.Abs(g.cfg.Ball.SpeedX)
	g.ball.vy = parity(g.ball.y) * core.Abs(g.cfg.Ball.SpeedY)

	if g.history != nil {
		g.history.fill(g.player.y)
	}
}

// NewGame zeroes the scores and starts a fresh match.
func (g *Game) NewGame() {
	g.playerScore = 0
	g.computerScore = 0
	g.phase = PhasePlaying
	g.reset()
}

// Update advances the simulation by one tick. It does nothing once the
// match is over.
func (g *Game) Update() {
	if g.phase == PhaseGameOver {
		return
	}
	g.ticks++
	g.history.push(g.player.y)

	b := &g.ball
	nx, ny := b.x+b.vx, b.y+b.vy

	// Walls invert vy once; the position is not clamped.
	if ny <= 0 || ny+b.size >= g.height {
		b.vy = -b.vy
	}

	candidate := core.NewRect(nx, ny, b.size, b.size)
	for _, p := range []*paddle{&g.player, &g.opponent} {
		if candidate.Touches(p.rect()) {
			g.bounce(p, candidate)
		}
	}

	switch {
	case nx <= 0:
		g.computerScore++
		g.reset()
	case nx+b.size >= g.width:
		g.playerScore++
		g.reset()
	default:
		b.x, b.y = nx, ny
	}

	win := g.cfg.Gameplay.WinScore
	if g.playerScore >= win || g.computerScore >= win {
		g.phase = PhaseGameOver
	}

	if b.vx > 0 {
		g.moveOpponent()
	}
}

// bounce reflects the ball off p and derives spin from where it hit.
func (g *Game) bounce(p *paddle, candidate core.Rect) {
	b := &g.ball
	b.vx = -b.vx

	_, ballCenterY := candidate.Center()
	b.vy = -(p.centerY() - ballCenterY) / g.cfg.Physics.SpinDamping
	if b.vy == 0 {
		b.vy = parity(candidate.Y) * spinFallback
	}
}

// moveOpponent steps the computer paddle toward its target.
func (g *Game) moveOpponent() {
	var target int
	switch g.cfg.Opponent.Mode {
	case config.OpponentDelayed:
		target = g.history.oldest() + g.player.h/2
	default:
		target = g.ball.y + g.ball.size/2
	}

	p := &g.opponent
	switch center := p.centerY(); {
	case center < target:
		p.y = core.Min(p.y+p.speed, g.height-p.h)
	case center > target:
		p.y = core.Max(p.y-p.speed, 0)
	}
}

// HandleKey applies one decoded key press.
func (g *Game) HandleKey(key core.DecodedKey) {
	p := &g.player
	switch core.ActionFor(key) {
	case core.ActionUp:
		p.y = core.Max(p.y-p.speed, 0)
	case core.ActionDown:
		p.y = core.Min(p.y+p.speed, g.height-p.h)
	case core.ActionRestart:
		if g.phase == PhaseGameOver {
			g.NewGame()
		}
	}
}

// Render draws the current frame. It does not change the game.
func (g *Game) Render(s *surface.Surface) {
	s.Clear()

	// Dashed centre line: 5 pixels on, 5 off.
	cx := g.width / 2
	for y := 0; y < g.height; y += 10 {
		s.FillRect(core.NewRect(cx, y, 1, 5), core.ColorDimGray)
	}

	s.FillRect(g.player.rect(), core.ColorWhite)
	s.FillRect(g.opponent.rect(), core.ColorWhite)
	s.FillRect(g.ball.rect(), core.ColorYellow)

	s.MoveCursor(g.width/4, 20)
	fmt.Fprintf(s, "%d                           %d\n", g.playerScore, g.computerScore)

	if g.phase == PhaseGameOver {
		s.MoveCursor(g.width/2-40, g.height/2-20)
		fmt.Fprintln(s, g.resultMessage())
		s.MoveCursor(g.width/2-100, g.height/2)
		fmt.Fprintln(s, "Press SPACE to play again")
	}
}

func (g *Game) resultMessage() string {
	if g.playerScore > g.computerScore {
		return "You Win!"
	}
	return "Computer Wins!"
}

// parity maps an even coordinate to 1 and an odd one to -1.
func parity(v int) int {
	if v%2 == 0 {
		return 1
	}
	return -1
}
