package kernel

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/vovakirdan/pongos/internal/boot"
	"github.com/vovakirdan/pongos/internal/config"
	"github.com/vovakirdan/pongos/internal/core"
	"github.com/vovakirdan/pongos/internal/serial"
	"github.com/vovakirdan/pongos/internal/surface"
)

const testPhysOffset = uint64(0x1000_0000)

// scriptedIRQ delivers startup, then a fixed number of ticks with key
// presses queued before given ticks.
type scriptedIRQ struct {
	ticks int
	keys  map[int][]core.DecodedKey
	ran   bool
	after func()
}

func (s *scriptedIRQ) Run(_ context.Context, h Handlers) error {
	s.ran = true
	h.Startup()
	for i := 0; i < s.ticks; i++ {
		for _, k := range s.keys[i] {
			h.Keyboard(k)
		}
		h.Timer()
	}
	if s.after != nil {
		s.after()
	}
	return nil
}

type testMachine struct {
	info     *boot.Info
	fb       []byte
	fbInfo   boot.FrameBufferInfo
	physical []byte
}

func newTestMachine(format boot.PixelFormat) *testMachine {
	fbInfo := boot.FrameBufferInfo{Width: 500, Height: 300, Stride: 512, BytesPerPixel: 4, PixelFormat: format}
	fb := make([]byte, fbInfo.ByteLen())
	physical := make([]byte, 0x30000)
	offset := testPhysOffset
	info := boot.NewInfo(
		&boot.FrameBuffer{Info: fbInfo, Buffer: fb},
		&offset,
		[]boot.MemoryRegion{
			{Start: 0x0, End: 0x1000, Kind: boot.RegionReserved},
			{Start: 0x1000, End: 0x8000, Kind: boot.RegionUsable},
			{Start: 0x8000, End: 0x10000, Kind: boot.RegionBootloader},
			{Start: 0x10000, End: 0x30000, Kind: boot.RegionUsable},
		},
		physical,
	)
	return &testMachine{info: info, fb: fb, fbInfo: fbInfo, physical: physical}
}

func bootWithLog(t *testing.T, m *testMachine, irq InterruptController, opts Options) (string, error) {
	t.Helper()
	var out bytes.Buffer
	port := serial.NewPort("COM1", &out)
	opts.Logger = serial.NewLogger(port, "kernel")
	err := Main(context.Background(), m.info, irq, opts)
	port.Flush()
	return out.String(), err
}

func TestMainBootsAndRuns(t *testing.T) {
	m := newTestMachine(boot.PixelBGR)
	irq := &scriptedIRQ{ticks: 10}

	logText, err := bootWithLog(t, m, irq, Options{})
	if err != nil {
		t.Fatalf("Main failed: %v", err)
	}
	if !irq.ran {
		t.Fatal("interrupt controller never started")
	}

	for _, want := range []string{
		"Entered kernel",
		"Screen initialized",
		"Heap allocation works: 42 + 24 = 66",
		"Starting kernel and initializing Pong game...",
	} {
		if !strings.Contains(logText, want) {
			t.Errorf("serial log missing %q", want)
		}
	}

	// After 10 ticks the ball has moved 20px right and 10px down.
	if got := surface.PixelAt(m.fb, m.fbInfo, 270, 160); got != core.ColorYellow {
		t.Errorf("ball pixel = %+v, expected yellow", got)
	}
}

func TestHeapLivesInLastUsableRegion(t *testing.T) {
	m := newTestMachine(boot.PixelRGB)
	m.physical[0x10000] = 0xEE // Init must zero the heap

	if _, err := bootWithLog(t, m, &scriptedIRQ{}, Options{}); err != nil {
		t.Fatalf("Main failed: %v", err)
	}

	if got := binary.LittleEndian.Uint64(m.physical[0x10000:]); got != 42 {
		t.Errorf("first heap cell = %d, expected 42", got)
	}
	if got := binary.LittleEndian.Uint64(m.physical[0x10008:]); got != 24 {
		t.Errorf("second heap cell = %d, expected 24", got)
	}
}

func TestStartupDrawsFirstFrame(t *testing.T) {
	m := newTestMachine(boot.PixelRGB)

	if _, err := bootWithLog(t, m, &scriptedIRQ{}, Options{}); err != nil {
		t.Fatalf("Main failed: %v", err)
	}

	if got := surface.PixelAt(m.fb, m.fbInfo, 250, 150); got != core.ColorYellow {
		t.Errorf("centre pixel = %+v, expected the ball", got)
	}
	if got := surface.PixelAt(m.fb, m.fbInfo, 30, 150); got != core.ColorWhite {
		t.Errorf("player paddle pixel = %+v, expected white", got)
	}
}

func TestKeyboardMovesPaddle(t *testing.T) {
	m := newTestMachine(boot.PixelRGB)
	up := core.RawKey(core.KeyArrowUp)
	irq := &scriptedIRQ{ticks: 1, keys: map[int][]core.DecodedKey{0: {up, up, up}}}

	if _, err := bootWithLog(t, m, irq, Options{}); err != nil {
		t.Fatalf("Main failed: %v", err)
	}

	// Three presses of 6px move the paddle from y=100 to y=82.
	if got := surface.PixelAt(m.fb, m.fbInfo, 30, 82); got != core.ColorWhite {
		t.Errorf("pixel at new paddle top = %+v, expected white", got)
	}
	if got := surface.PixelAt(m.fb, m.fbInfo, 30, 190); got != core.ColorBlack {
		t.Errorf("pixel below moved paddle = %+v, expected black", got)
	}
}

func TestMatchReportedOnSerial(t *testing.T) {
	m := newTestMachine(boot.PixelRGB)
	cfg := config.DefaultPongConfig()
	cfg.Gameplay.WinScore = 1
	// A ball this fast crosses the court before the opponent can react.
	cfg.Ball.SpeedX = 60

	logText, err := bootWithLog(t, m, &scriptedIRQ{ticks: 10}, Options{Pong: cfg})
	if err != nil {
		t.Fatalf("Main failed: %v", err)
	}
	if !strings.Contains(logText, "match over") {
		t.Errorf("serial log does not report the end of the match:\n%s", logText)
	}
}

func TestMainFatalFaults(t *testing.T) {
	tests := []struct {
		name   string
		modify func(m *testMachine)
		want   error
	}{
		{"no framebuffer", func(m *testMachine) { m.info.Framebuffer = nil }, boot.ErrNoFramebuffer},
		{"grayscale framebuffer", func(m *testMachine) {
			m.info.Framebuffer.Info.PixelFormat = boot.PixelU8
		}, surface.ErrUnsupportedPixelFormat},
		{"no physical offset", func(m *testMachine) { m.info.PhysicalMemoryOffset = nil }, boot.ErrNoPhysicalOffset},
		{"no usable region", func(m *testMachine) {
			m.info.MemoryRegions = []boot.MemoryRegion{{Start: 0, End: 0x1000, Kind: boot.RegionReserved}}
		}, boot.ErrNoUsableRegion},
		{"heap past physical memory", func(m *testMachine) {
			m.info.MemoryRegions = []boot.MemoryRegion{{Start: 0x20000, End: 0x30000, Kind: boot.RegionUsable}}
		}, boot.ErrUnmapped},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestMachine(boot.PixelRGB)
			tc.modify(m)
			irq := &scriptedIRQ{ticks: 1}

			_, err := bootWithLog(t, m, irq, Options{})
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, expected %v", err, tc.want)
			}
			if irq.ran {
				t.Error("handlers started after a fatal fault")
			}
		})
	}
}
