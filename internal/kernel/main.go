package kernel

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/image/font/basicfont"

	"github.com/vovakirdan/pongos/internal/boot"
	"github.com/vovakirdan/pongos/internal/config"
	"github.com/vovakirdan/pongos/internal/core"
	"github.com/vovakirdan/pongos/internal/games/pong"
	"github.com/vovakirdan/pongos/internal/heap"
	"github.com/vovakirdan/pongos/internal/surface"
)

// welcome is printed on screen by the startup handler.
func welcome(winScore int) []string {
	return []string{
		"Welcome to Pong OS!",
		"Use Up/Down arrows to move your paddle",
		fmt.Sprintf("First to %d points wins!", winScore),
	}
}

// Options configures a boot.
type Options struct {
	// Logger receives every diagnostic; normally a serial logger.
	// Nil discards them.
	Logger *log.Logger

	// Pong configures the simulation. The zero value uses the defaults.
	Pong config.PongConfig

	// Face overrides the surface font.
	Face *basicfont.Face
}

// world is everything the handlers touch, guarded as one unit.
type world struct {
	game     *pong.Game
	winScore int
	screen   *surface.Surface
	last     pong.MatchState
}

// Main is the kernel entry point. Errors it returns are fatal faults: the
// caller halts the machine. When the boot succeeds Main does not return
// until the interrupt controller stops.
func Main(ctx context.Context, bi *boot.Info, irq InterruptController, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Pong == (config.PongConfig{}) {
		opts.Pong = config.DefaultPongConfig()
	}

	logger.Info("Entered kernel", "regions", len(bi.MemoryRegions))

	if bi.Framebuffer == nil {
		return fmt.Errorf("kernel: %w", boot.ErrNoFramebuffer)
	}
	fb := bi.Framebuffer
	var surfaceOpts []surface.Option
	if opts.Face != nil {
		surfaceOpts = append(surfaceOpts, surface.WithFace(opts.Face))
	}
	screen, err := surface.New(fb.Buffer, fb.Info, surfaceOpts...)
	if err != nil {
		return fmt.Errorf("kernel: screen init: %w", err)
	}
	logger.Info("Screen initialized",
		"width", fb.Info.Width,
		"height", fb.Info.Height,
		"stride", fb.Info.Stride,
		"bpp", fb.Info.BytesPerPixel,
		"format", fb.Info.PixelFormat)

	for _, r := range bi.MemoryRegions {
		logger.Debug("memory region", "region", r)
	}

	arena, err := initHeap(bi, logger)
	if err != nil {
		return err
	}
	heapSmokeTest(arena, screen, logger)

	logger.Info("Starting kernel and initializing Pong game...")
	game, err := pong.New(screen.Width(), screen.Height(), opts.Pong, arena)
	if err != nil {
		return fmt.Errorf("kernel: %w", err)
	}

	var shared Shared[*world]
	if err := shared.Init(&world{
		game:     game,
		winScore: opts.Pong.Gameplay.WinScore,
		screen:   screen,
		last:     game.State(),
	}); err != nil {
		return fmt.Errorf("kernel: %w", err)
	}

	return NewHandlerTable().
		Keyboard(func(k core.DecodedKey) {
			with(&shared, logger, func(w *world) { onKey(w, k, logger) })
		}).
		Timer(func() {
			with(&shared, logger, func(w *world) { onTick(w, logger) })
		}).
		Startup(func() {
			with(&shared, logger, onStart)
		}).
		Start(ctx, irq)
}

// initHeap maps the heap at the start of the last usable memory region.
func initHeap(bi *boot.Info, logger *log.Logger) (*heap.Arena, error) {
	region, err := bi.LastUsable()
	if err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}
	logger.Info("usable region", "region", region)

	if bi.PhysicalMemoryOffset == nil {
		return nil, fmt.Errorf("kernel: %w", boot.ErrNoPhysicalOffset)
	}
	physOffset := *bi.PhysicalMemoryOffset
	start := physOffset + region.Start
	logger.Info("Physical memory offset",
		"offset", fmt.Sprintf("%#x", physOffset),
		"usable", fmt.Sprintf("%#x", start))

	mem, err := bi.Map(start, heap.HeapSize)
	if err != nil {
		return nil, fmt.Errorf("kernel: map heap: %w", err)
	}
	arena := heap.New(logger.WithPrefix("heap"))
	arena.Init(uintptr(start), mem)
	return arena, nil
}

// heapSmokeTest boxes two numbers on the heap and prints their sum.
// A failure is reported but does not stop the boot.
func heapSmokeTest(arena *heap.Arena, screen *surface.Surface, logger *log.Logger) {
	x, err := heap.NewUint64(arena, 42)
	if err != nil {
		logger.Error("heap smoke test failed", "err", err)
		return
	}
	y, err := heap.NewUint64(arena, 24)
	if err != nil {
		logger.Error("heap smoke test failed", "err", err)
		return
	}
	xv, _ := heap.LoadUint64(arena, x)
	yv, _ := heap.LoadUint64(arena, y)

	msg := fmt.Sprintf("Heap allocation works: %d + %d = %d", xv, yv, xv+yv)
	fmt.Fprintln(screen, msg)
	logger.Info(msg)
}

func with(shared *Shared[*world], logger *log.Logger, fn func(*world)) {
	if err := shared.With(fn); err != nil {
		logger.Error("handler ran before boot finished", "err", err)
	}
}

func onStart(w *world) {
	for _, line := range welcome(w.winScore) {
		fmt.Fprintln(w.screen, line)
	}
	w.game.Render(w.screen)
}

func onTick(w *world, logger *log.Logger) {
	w.game.Update()
	w.game.Render(w.screen)
	report(w, logger)
}

func onKey(w *world, k core.DecodedKey, logger *log.Logger) {
	logger.Debug("key", "key", k)
	w.game.HandleKey(k)
	report(w, logger)
}

// report logs score and phase changes since the last call.
func report(w *world, logger *log.Logger) {
	s := w.game.State()
	prev := w.last
	w.last = s

	switch {
	case s.Phase != prev.Phase && s.GameOver:
		logger.Info("match over", "score", s.Score(), "winner", s.Winner(), "tick", s.Tick)
	case s.Phase != prev.Phase:
		logger.Info("new match")
	case s.Score() != prev.Score():
		logger.Info("point", "score", s.Score(), "tick", s.Tick)
	}
}
