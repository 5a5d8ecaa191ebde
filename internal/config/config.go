// Package config provides YAML-based configuration for the hosted machine
// and the pong simulation, plus the named difficulty presets.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid")

// MachineConfig describes the emulated hardware the kernel boots on.
type MachineConfig struct {
	Display  DisplayConfig  `yaml:"display"`
	Memory   MemoryConfig   `yaml:"memory"`
	Timer    TimerConfig    `yaml:"timer"`
	Keyboard KeyboardConfig `yaml:"keyboard"`
	Console  ConsoleConfig  `yaml:"console"`
}

// DisplayConfig defines the linear framebuffer the firmware sets up.
type DisplayConfig struct {
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	Stride        int    `yaml:"stride"` // In pixels; 0 means equal to width
	BytesPerPixel int    `yaml:"bytes_per_pixel"`
	PixelFormat   string `yaml:"pixel_format"` // "rgb", "bgr" or "u8"
}

// MemoryConfig defines physical memory and how the bootloader maps it.
type MemoryConfig struct {
	// PhysicalOffset is the virtual address all physical memory is mapped at.
	PhysicalOffset uint64 `yaml:"physical_offset"`
	// MapPhysical false simulates a bootloader that did not map physical memory.
	MapPhysical bool           `yaml:"map_physical"`
	Regions     []RegionConfig `yaml:"regions"`
}

// RegionConfig is one entry of the memory map.
type RegionConfig struct {
	Start uint64 `yaml:"start"`
	Size  uint64 `yaml:"size"`
	Kind  string `yaml:"kind"` // "usable", "bootloader" or "reserved"
}

// TimerConfig defines the periodic timer interrupt.
type TimerConfig struct {
	Hz int `yaml:"hz"`
}

// KeyboardConfig defines the keyboard interrupt queue.
type KeyboardConfig struct {
	QueueDepth int `yaml:"queue_depth"`
}

// ConsoleConfig defines the terminal monitor.
type ConsoleConfig struct {
	FPS int `yaml:"fps"`
}

// PhysicalSize returns the amount of physical memory the regions span.
func (m MemoryConfig) PhysicalSize() uint64 {
	var end uint64
	for _, r := range m.Regions {
		end = max(end, r.Start+r.Size)
	}
	return end
}

// Validate checks the machine description for values the firmware cannot
// realise.
func (c MachineConfig) Validate() error {
	d := c.Display
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: display %dx%d", ErrInvalidConfig, d.Width, d.Height)
	}
	if d.BytesPerPixel <= 0 {
		return fmt.Errorf("%w: bytes_per_pixel %d", ErrInvalidConfig, d.BytesPerPixel)
	}
	if d.Stride != 0 && d.Stride < d.Width {
		return fmt.Errorf("%w: stride %d below width %d", ErrInvalidConfig, d.Stride, d.Width)
	}
	switch strings.ToLower(d.PixelFormat) {
	case "rgb", "bgr", "u8":
	default:
		return fmt.Errorf("%w: pixel_format %q", ErrInvalidConfig, d.PixelFormat)
	}

	var prevEnd uint64
	for i, r := range c.Memory.Regions {
		if r.Size == 0 {
			return fmt.Errorf("%w: region %d is empty", ErrInvalidConfig, i)
		}
		if r.Start < prevEnd {
			return fmt.Errorf("%w: region %d at %#x overlaps the previous one", ErrInvalidConfig, i, r.Start)
		}
		switch r.Kind {
		case "usable", "bootloader", "reserved":
		default:
			return fmt.Errorf("%w: region %d kind %q", ErrInvalidConfig, i, r.Kind)
		}
		prevEnd = r.Start + r.Size
	}

	if c.Timer.Hz <= 0 {
		return fmt.Errorf("%w: timer hz %d", ErrInvalidConfig, c.Timer.Hz)
	}
	if c.Keyboard.QueueDepth <= 0 {
		return fmt.Errorf("%w: keyboard queue_depth %d", ErrInvalidConfig, c.Keyboard.QueueDepth)
	}
	if c.Console.FPS <= 0 {
		return fmt.Errorf("%w: console fps %d", ErrInvalidConfig, c.Console.FPS)
	}
	return nil
}

// PongConfig contains all configuration for the pong simulation.
// Sizes and speeds are divisors of the screen dimensions so the game scales
// with whatever framebuffer the firmware provides.
type PongConfig struct {
	Geometry PongGeometry `yaml:"geometry"`
	Ball     PongBall     `yaml:"ball"`
	Physics  PongPhysics  `yaml:"physics"`
	Gameplay PongGameplay `yaml:"gameplay"`
	Opponent PongOpponent `yaml:"opponent"`
}

// PongGeometry divides the screen width (W) or height (H) into entity sizes.
type PongGeometry struct {
	BallSize      int `yaml:"ball_size"`      // W / n
	PaddleWidth   int `yaml:"paddle_width"`   // W / n
	PaddleHeight  int `yaml:"paddle_height"`  // H / n
	PaddleOffset  int `yaml:"paddle_offset"`  // W / n from each side
	PlayerSpeed   int `yaml:"player_speed"`   // H / n per key press
	OpponentSpeed int `yaml:"opponent_speed"` // H / n per tick
}

// PongBall defines the serve velocity in pixels per tick.
type PongBall struct {
	SpeedX int `yaml:"speed_x"`
	SpeedY int `yaml:"speed_y"`
}

// PongPhysics defines the paddle spin.
type PongPhysics struct {
	SpinDamping int `yaml:"spin_damping"`
}

// PongGameplay defines match rules.
type PongGameplay struct {
	WinScore int `yaml:"win_score"`
}

// Opponent AI modes.
const (
	OpponentBall    = "ball"    // follows the ball's centre
	OpponentDelayed = "delayed" // follows the player's position from Delay ticks ago
)

// PongOpponent defines the computer paddle's AI.
type PongOpponent struct {
	Mode  string `yaml:"mode"`
	Delay int    `yaml:"delay"` // Ticks of player history, also the ring length
}

// Validate checks that every divisor and rate is usable.
func (c PongConfig) Validate() error {
	g := c.Geometry
	divisors := []struct {
		name string
		v    int
	}{
		{"ball_size", g.BallSize},
		{"paddle_width", g.PaddleWidth},
		{"paddle_height", g.PaddleHeight},
		{"paddle_offset", g.PaddleOffset},
		{"player_speed", g.PlayerSpeed},
		{"opponent_speed", g.OpponentSpeed},
		{"spin_damping", c.Physics.SpinDamping},
	}
	for _, d := range divisors {
		if d.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, d.name, d.v)
		}
	}
	if c.Ball.SpeedX == 0 || c.Ball.SpeedY == 0 {
		return fmt.Errorf("%w: ball speed must be non-zero on both axes, got (%d, %d)",
			ErrInvalidConfig, c.Ball.SpeedX, c.Ball.SpeedY)
	}
	if c.Gameplay.WinScore <= 0 {
		return fmt.Errorf("%w: win_score %d", ErrInvalidConfig, c.Gameplay.WinScore)
	}
	switch c.Opponent.Mode {
	case OpponentBall, OpponentDelayed:
	default:
		return fmt.Errorf("%w: opponent mode %q", ErrInvalidConfig, c.Opponent.Mode)
	}
	if c.Opponent.Delay <= 0 {
		return fmt.Errorf("%w: opponent delay %d", ErrInvalidConfig, c.Opponent.Delay)
	}
	return nil
}
