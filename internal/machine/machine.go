// Package machine emulates the hardware the pong kernel boots on: the
// firmware that sets up a framebuffer and a memory map, a periodic timer,
// a keyboard, and the interrupt controller that delivers their interrupts
// one at a time.
package machine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pongos/internal/boot"
	"github.com/vovakirdan/pongos/internal/config"
	"github.com/vovakirdan/pongos/internal/core"
	"github.com/vovakirdan/pongos/internal/kernel"
	"github.com/vovakirdan/pongos/internal/surface"
)

// ErrAlreadyRunning is returned when Run is called on a running machine.
var ErrAlreadyRunning = errors.New("machine: already running")

// TimerFunc starts a periodic timer at hz and returns its channel and a
// stop function.
type TimerFunc func(hz int) (<-chan time.Time, func())

// Option configures a Machine.
type Option func(*Machine)

// WithTimer replaces the wall-clock timer, mainly for tests.
func WithTimer(fn TimerFunc) Option {
	return func(m *Machine) {
		m.timer = fn
	}
}

// Machine is one emulated computer. Only one kernel can run on it.
type Machine struct {
	cfg    config.MachineConfig
	logger *log.Logger
	timer  TimerFunc

	fbInfo   boot.FrameBufferInfo
	fb       []byte
	physical []byte
	info     *boot.Info

	// bus is held while a handler runs and while the framebuffer is
	// scanned out, so a scan never sees a half-drawn frame.
	bus sync.Mutex

	keys    chan core.DecodedKey
	off     chan struct{}
	offOnce sync.Once
	running atomic.Bool

	ticks   atomic.Uint64
	irqs    atomic.Uint64
	dropped atomic.Uint64
}

// New powers on a machine: it allocates video and physical memory and
// prepares the boot handoff.
func New(cfg config.MachineConfig, logger *log.Logger, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	d := cfg.Display
	stride := d.Stride
	if stride == 0 {
		stride = d.Width
	}
	fbInfo := boot.FrameBufferInfo{
		Width:         d.Width,
		Height:        d.Height,
		Stride:        stride,
		BytesPerPixel: d.BytesPerPixel,
		PixelFormat:   boot.ParsePixelFormat(d.PixelFormat),
	}

	m := &Machine{
		cfg:      cfg,
		logger:   logger,
		timer:    wallClock,
		fbInfo:   fbInfo,
		fb:       make([]byte, fbInfo.ByteLen()),
		physical: make([]byte, cfg.Memory.PhysicalSize()),
		keys:     make(chan core.DecodedKey, cfg.Keyboard.QueueDepth),
		off:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	regions := make([]boot.MemoryRegion, 0, len(cfg.Memory.Regions))
	for _, r := range cfg.Memory.Regions {
		regions = append(regions, boot.MemoryRegion{
			Start: r.Start,
			End:   r.Start + r.Size,
			Kind:  regionKind(r.Kind),
		})
	}
	var physOffset *uint64
	if cfg.Memory.MapPhysical {
		offset := cfg.Memory.PhysicalOffset
		physOffset = &offset
	}
	m.info = boot.NewInfo(&boot.FrameBuffer{Info: fbInfo, Buffer: m.fb}, physOffset, regions, m.physical)

	logger.Debug("machine powered on",
		"display", m.DisplayString(),
		"physical", len(m.physical),
		"timer_hz", cfg.Timer.Hz)
	return m, nil
}

// BootInfo returns the handoff the firmware gives the kernel.
func (m *Machine) BootInfo() *boot.Info {
	return m.info
}

// Display returns the framebuffer layout.
func (m *Machine) Display() boot.FrameBufferInfo {
	return m.fbInfo
}

// DisplayString describes the display, e.g. "640x480 bgr/4".
func (m *Machine) DisplayString() string {
	return fmt.Sprintf("%dx%d %s/%d", m.fbInfo.Width, m.fbInfo.Height, m.fbInfo.PixelFormat, m.fbInfo.BytesPerPixel)
}

// Config returns the machine description.
func (m *Machine) Config() config.MachineConfig {
	return m.cfg
}

// Run is the interrupt controller. It delivers Startup once, then timer
// and keyboard interrupts serially until ctx ends or PowerOff is called.
func (m *Machine) Run(ctx context.Context, h kernel.Handlers) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer m.running.Store(false)

	ticks, stop := m.timer(m.cfg.Timer.Hz)
	defer stop()

	m.deliver(h.Startup)
	m.logger.Debug("interrupts enabled")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("power off", "reason", ctx.Err(), "ticks", m.Ticks())
			return nil
		case <-m.off:
			m.logger.Info("power off", "ticks", m.Ticks())
			return nil
		case <-ticks:
			m.ticks.Add(1)
			m.deliver(h.Timer)
		case k := <-m.keys:
			m.deliver(func() { h.Keyboard(k) })
		}
	}
}

// deliver runs one handler with the bus held.
func (m *Machine) deliver(fn func()) {
	m.bus.Lock()
	defer m.bus.Unlock()
	m.irqs.Add(1)
	fn()
}

// RaiseKey queues a keyboard interrupt. It never blocks: when the queue is
// full the oldest pending key is dropped.
func (m *Machine) RaiseKey(k core.DecodedKey) {
	select {
	case m.keys <- k:
		return
	default:
	}

	// Buffer full, drop oldest and retry
	select {
	case <-m.keys:
		m.dropped.Add(1)
	default:
	}
	select {
	case m.keys <- k:
	default:
		m.dropped.Add(1)
	}
}

// PowerOff stops Run. It is safe to call more than once.
func (m *Machine) PowerOff() {
	m.offOnce.Do(func() { close(m.off) })
}

// Scanout returns a copy of the current frame.
func (m *Machine) Scanout() *image.RGBA {
	m.bus.Lock()
	defer m.bus.Unlock()
	return surface.ToImage(m.fb, m.fbInfo)
}

// Ticks returns how many timer interrupts have been delivered.
func (m *Machine) Ticks() uint64 {
	return m.ticks.Load()
}

// Interrupts returns how many handlers have run, startup included.
func (m *Machine) Interrupts() uint64 {
	return m.irqs.Load()
}

// DroppedKeys returns how many key presses were lost to a full queue.
func (m *Machine) DroppedKeys() uint64 {
	return m.dropped.Load()
}

func regionKind(kind string) boot.RegionKind {
	switch strings.ToLower(kind) {
	case "usable":
		return boot.RegionUsable
	case "bootloader":
		return boot.RegionBootloader
	default:
		return boot.RegionReserved
	}
}

func wallClock(hz int) (<-chan time.Time, func()) {
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	return ticker.C, ticker.Stop
}

// CountedTimer fires n ticks back to back, as fast as the kernel takes
// them, then calls done. Headless runs pass PowerOff as done.
func CountedTimer(n int, done func()) TimerFunc {
	return func(int) (<-chan time.Time, func()) {
		ch := make(chan time.Time)
		stop := make(chan struct{})
		go func() {
			for i := 0; i < n; i++ {
				select {
				case ch <- time.Time{}:
				case <-stop:
					return
				}
			}
			if done != nil {
				done()
			}
		}()
		var once sync.Once
		return ch, func() { once.Do(func() { close(stop) }) }
	}
}
