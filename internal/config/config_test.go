package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	var machine MachineConfig
	if err := yaml.Unmarshal(GetDefaultYAML("machine"), &machine); err != nil {
		t.Fatalf("embedded machine.yaml: %v", err)
	}
	if !reflect.DeepEqual(machine, DefaultMachineConfig()) {
		t.Errorf("machine.yaml = %+v\nexpected %+v", machine, DefaultMachineConfig())
	}

	var pong PongConfig
	if err := yaml.Unmarshal(GetDefaultYAML("pong"), &pong); err != nil {
		t.Fatalf("embedded pong.yaml: %v", err)
	}
	if !reflect.DeepEqual(pong, DefaultPongConfig()) {
		t.Errorf("pong.yaml = %+v\nexpected %+v", pong, DefaultPongConfig())
	}

	if GetDefaultYAML("flappy") != nil {
		t.Error("unknown config name should have no default")
	}
}

func TestDefaultsValidate(t *testing.T) {
	if err := DefaultMachineConfig().Validate(); err != nil {
		t.Errorf("default machine config invalid: %v", err)
	}
	if err := DefaultPongConfig().Validate(); err != nil {
		t.Errorf("default pong config invalid: %v", err)
	}
}

func TestLoadPongCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pong.yaml")
	data := []byte("gameplay:\n  win_score: 3\nopponent:\n  mode: delayed\n  delay: 4\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadPong(path)
	if err != nil {
		t.Fatalf("LoadPong failed: %v", err)
	}
	if cfg.Gameplay.WinScore != 3 || cfg.Opponent.Mode != OpponentDelayed || cfg.Opponent.Delay != 4 {
		t.Errorf("custom values not applied: %+v", cfg)
	}
	// Keys missing from the file keep their defaults.
	if cfg.Geometry != DefaultPongConfig().Geometry {
		t.Errorf("geometry = %+v, expected defaults", cfg.Geometry)
	}
}

func TestLoadMachineCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.yaml")
	data := []byte("display:\n  width: 320\n  height: 200\n  stride: 0\n  pixel_format: rgb\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadMachine(path)
	if err != nil {
		t.Fatalf("LoadMachine failed: %v", err)
	}
	if cfg.Display.Width != 320 || cfg.Display.Stride != 320 {
		t.Errorf("display = %+v, expected width 320 with stride defaulted to it", cfg.Display)
	}
	if cfg.Memory.PhysicalOffset != 0x18000000000 {
		t.Errorf("physical offset = %#x", cfg.Memory.PhysicalOffset)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadPong(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing custom file should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("geometry: [1, 2"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPong(bad); err == nil {
		t.Error("malformed YAML should fail")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("opponent:\n  mode: psychic\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPong(invalid); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, expected ErrInvalidConfig", err)
	}
}

func TestMachineValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*MachineConfig)
	}{
		{"zero width", func(c *MachineConfig) { c.Display.Width = 0 }},
		{"zero bpp", func(c *MachineConfig) { c.Display.BytesPerPixel = 0 }},
		{"narrow stride", func(c *MachineConfig) { c.Display.Stride = 10 }},
		{"bad format", func(c *MachineConfig) { c.Display.PixelFormat = "cmyk" }},
		{"empty region", func(c *MachineConfig) { c.Memory.Regions[0].Size = 0 }},
		{"overlapping regions", func(c *MachineConfig) { c.Memory.Regions[2].Start = 0x2000 }},
		{"bad region kind", func(c *MachineConfig) { c.Memory.Regions[1].Kind = "acpi" }},
		{"zero timer", func(c *MachineConfig) { c.Timer.Hz = 0 }},
		{"zero queue", func(c *MachineConfig) { c.Keyboard.QueueDepth = 0 }},
		{"zero fps", func(c *MachineConfig) { c.Console.FPS = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultMachineConfig()
			tc.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, expected ErrInvalidConfig", err)
			}
		})
	}
}

func TestPhysicalSize(t *testing.T) {
	if got := DefaultMachineConfig().Memory.PhysicalSize(); got != 0x30000 {
		t.Errorf("PhysicalSize() = %#x, expected 0x30000", got)
	}
}

func TestApplyPongPreset(t *testing.T) {
	tests := []struct {
		preset DifficultyPreset
		mode   string
		speed  int
	}{
		{DifficultyEasy, OpponentDelayed, 80},
		{DifficultyNormal, OpponentDelayed, 60},
		{DifficultyHard, OpponentBall, 45},
	}

	for _, tc := range tests {
		t.Run(string(tc.preset), func(t *testing.T) {
			cfg := DefaultPongConfig()
			ApplyPongPreset(&cfg, tc.preset)
			if cfg.Opponent.Mode != tc.mode || cfg.Geometry.OpponentSpeed != tc.speed {
				t.Errorf("opponent = %+v speed %d, expected %s at %d",
					cfg.Opponent, cfg.Geometry.OpponentSpeed, tc.mode, tc.speed)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset produced invalid config: %v", err)
			}
		})
	}

	cfg := DefaultPongConfig()
	ApplyPongPreset(&cfg, "")
	if cfg != DefaultPongConfig() {
		t.Error("empty preset changed the config")
	}
}

func TestParseDifficulty(t *testing.T) {
	if _, err := ParseDifficulty("nightmare"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, expected ErrInvalidConfig", err)
	}
	if p, err := ParseDifficulty("hard"); err != nil || p != DifficultyHard {
		t.Errorf("ParseDifficulty(hard) = %q, %v", p, err)
	}
}
