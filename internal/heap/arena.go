// Package heap implements the kernel heap: a bump allocator over the one
// writable memory region the bootloader hands over. Memory is never
// reclaimed, so the heap only suits the small, bounded set of allocations
// the kernel makes while booting and the simulation's fixed buffers.
package heap

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// HeapSize is the capacity the kernel maps for its heap.
const HeapSize = 100 * 1024 // 100 KiB

var (
	// ErrOutOfMemory is returned when a request does not fit in the
	// remaining capacity. The heap is left unchanged.
	ErrOutOfMemory = errors.New("heap: out of memory")

	// ErrInvalidAlignment is returned for a zero or non power of two alignment.
	ErrInvalidAlignment = errors.New("heap: alignment must be a power of two")

	// ErrNotInitialized is returned when allocating before Init.
	ErrNotInitialized = errors.New("heap: not initialized")

	// ErrBadAddress is returned by Bytes for a span outside the heap.
	ErrBadAddress = errors.New("heap: address outside heap")
)

// Arena is a fixed-capacity bump allocator.
//
// The next-free offset only ever grows and is advanced with a single
// compare-and-swap, so callers on different goroutines (or an allocation
// made from inside an interrupt handler) are never granted overlapping
// spans. Init itself is not safe to call concurrently.
type Arena struct {
	base   uintptr
	mem    []byte
	offset atomic.Uintptr
	ready  atomic.Bool
	logger *log.Logger
}

// New returns an uninitialized arena that traces to logger.
// A nil logger disables tracing.
func New(logger *log.Logger) *Arena {
	return &Arena{logger: logger}
}

// Init takes ownership of region, which the kernel sees at virtual address
// base. The region is zero-filled and the offset reset.
func (a *Arena) Init(base uintptr, region []byte) {
	a.base = base
	a.mem = region
	a.offset.Store(0)
	clear(a.mem)
	a.ready.Store(true)

	a.debug("heap initialized", "base", fmt.Sprintf("%#x", base), "size", len(region))
}

// Allocate claims size bytes whose address is a multiple of align and
// returns that address.
func (a *Arena) Allocate(size, align uintptr) (uintptr, error) {
	if !a.ready.Load() {
		return 0, ErrNotInitialized
	}
	if align == 0 || align&(align-1) != 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidAlignment, align)
	}

	capacity := uintptr(len(a.mem))
	for {
		current := a.offset.Load()
		aligned := alignUp(a.base+current, align) - a.base

		if aligned < current || aligned+size < aligned || aligned+size > capacity {
			a.debug("out of memory", "offset", aligned, "size", size)
			return 0, fmt.Errorf("%w: offset=%d size=%d capacity=%d", ErrOutOfMemory, aligned, size, capacity)
		}

		if a.offset.CompareAndSwap(current, aligned+size) {
			addr := a.base + aligned
			a.debug("allocated", "size", size, "addr", fmt.Sprintf("%#x", addr), "align", align)
			return addr, nil
		}
		// Another caller moved the offset; recompute from the new value.
	}
}

// Deallocate does nothing: the arena never reclaims memory.
func (a *Arena) Deallocate(addr uintptr) {
	a.debug("dealloc was called", "addr", fmt.Sprintf("%#x", addr))
}

// Bytes returns the heap memory backing [addr, addr+size).
// The span must lie inside the part of the heap handed out so far.
func (a *Arena) Bytes(addr, size uintptr) ([]byte, error) {
	if !a.ready.Load() {
		return nil, ErrNotInitialized
	}
	if addr < a.base {
		return nil, fmt.Errorf("%w: %#x", ErrBadAddress, addr)
	}
	start := addr - a.base
	end := start + size
	if end < start || end > a.offset.Load() {
		return nil, fmt.Errorf("%w: %#x+%d", ErrBadAddress, addr, size)
	}
	return a.mem[start:end:end], nil
}

// Base returns the virtual address of the first heap byte.
func (a *Arena) Base() uintptr {
	return a.base
}

// Used returns the current next-free offset.
func (a *Arena) Used() uintptr {
	return a.offset.Load()
}

// Cap returns the heap capacity in bytes.
func (a *Arena) Cap() uintptr {
	return uintptr(len(a.mem))
}

func (a *Arena) debug(msg string, keyvals ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, keyvals...)
	}
}

// alignUp rounds addr up to the next multiple of align (a power of two).
func alignUp(addr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}
