package config

import (
	_ "embed"
)

//go:embed defaults/machine.yaml
var defaultMachineYAML []byte

//go:embed defaults/pong.yaml
var defaultPongYAML []byte

// DefaultMachineConfig returns the default machine: a 640x480 BGR display
// and 192 KiB of physical memory mapped high.
func DefaultMachineConfig() MachineConfig {
	return MachineConfig{
		Display: DisplayConfig{
			Width:         640,
			Height:        480,
			Stride:        640,
			BytesPerPixel: 4,
			PixelFormat:   "bgr",
		},
		Memory: MemoryConfig{
			PhysicalOffset: 0x180_0000_0000,
			MapPhysical:    true,
			Regions: []RegionConfig{
				{Start: 0x0, Size: 0x1000, Kind: "reserved"},
				{Start: 0x1000, Size: 0xf000, Kind: "bootloader"},
				{Start: 0x10000, Size: 0x20000, Kind: "usable"},
			},
		},
		Timer:    TimerConfig{Hz: 60},
		Keyboard: KeyboardConfig{QueueDepth: 16},
		Console:  ConsoleConfig{FPS: 30},
	}
}

// DefaultPongConfig returns the default pong configuration.
func DefaultPongConfig() PongConfig {
	return PongConfig{
		Geometry: PongGeometry{
			BallSize:      50,
			PaddleWidth:   50,
			PaddleHeight:  3,
			PaddleOffset:  20,
			PlayerSpeed:   50,
			OpponentSpeed: 60, // Slightly slower than the player
		},
		Ball: PongBall{
			SpeedX: 2,
			SpeedY: 1,
		},
		Physics: PongPhysics{
			SpinDamping: 10,
		},
		Gameplay: PongGameplay{
			WinScore: 5,
		},
		Opponent: PongOpponent{
			Mode:  OpponentBall,
			Delay: 8,
		},
	}
}

// GetDefaultYAML returns the embedded default YAML for a config name.
func GetDefaultYAML(name string) []byte {
	switch name {
	case "machine":
		return defaultMachineYAML
	case "pong":
		return defaultPongYAML
	default:
		return nil
	}
}
