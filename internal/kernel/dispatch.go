// Package kernel is the pong kernel proper: it takes the boot handoff,
// brings up the heap and the frame surface, and then gives control to the
// interrupt controller for good. After that the kernel only runs inside
// its startup, timer and keyboard handlers.
package kernel

import (
	"context"

	"github.com/vovakirdan/pongos/internal/core"
)

// Handlers are the callbacks an interrupt controller delivers.
// The controller runs at most one handler at a time, each to completion.
type Handlers struct {
	Startup  func()
	Timer    func()
	Keyboard func(core.DecodedKey)
}

// InterruptController owns the machine after the kernel hands off. Run
// calls Startup once, then Timer and Keyboard as interrupts arrive. It only
// returns when the machine stops.
type InterruptController interface {
	Run(ctx context.Context, h Handlers) error
}

// HandlerTable collects handlers before handing control to the controller.
type HandlerTable struct {
	h Handlers
}

// NewHandlerTable returns a table with every handler a no-op.
func NewHandlerTable() *HandlerTable {
	return &HandlerTable{}
}

// Startup registers the handler run once before the first interrupt.
func (t *HandlerTable) Startup(fn func()) *HandlerTable {
	t.h.Startup = fn
	return t
}

// Timer registers the periodic timer handler.
func (t *HandlerTable) Timer(fn func()) *HandlerTable {
	t.h.Timer = fn
	return t
}

// Keyboard registers the handler for decoded key presses.
func (t *HandlerTable) Keyboard(fn func(core.DecodedKey)) *HandlerTable {
	t.h.Keyboard = fn
	return t
}

// Handlers returns the registered handlers with no-ops filled in.
func (t *HandlerTable) Handlers() Handlers {
	h := t.h
	if h.Startup == nil {
		h.Startup = func() {}
	}
	if h.Timer == nil {
		h.Timer = func() {}
	}
	if h.Keyboard == nil {
		h.Keyboard = func(core.DecodedKey) {}
	}
	return h
}

// Start hands control to irq. On hardware it never returns; a hosted
// controller returns when the machine powers off or ctx ends.
func (t *HandlerTable) Start(ctx context.Context, irq InterruptController) error {
	return irq.Run(ctx, t.Handlers())
}
