// Package boot describes what the bootloader hands the kernel: the
// framebuffer, the physical memory mapping and the memory map. The kernel
// consumes it once at entry.
package boot

import (
	"errors"
	"fmt"
)

var (
	ErrNoFramebuffer    = errors.New("boot: no framebuffer")
	ErrNoPhysicalOffset = errors.New("boot: physical memory offset not provided")
	ErrNoUsableRegion   = errors.New("boot: no usable memory region")
	ErrUnmapped         = errors.New("boot: address not mapped")
)

// PixelFormat is the byte order of colour channels in one pixel.
type PixelFormat int

const (
	PixelUnknown PixelFormat = iota
	PixelRGB                 // red, green, blue
	PixelBGR                 // blue, green, red
	PixelU8                  // one grayscale byte
)

// String returns the format name used in config files and logs.
func (f PixelFormat) String() string {
	switch f {
	case PixelRGB:
		return "rgb"
	case PixelBGR:
		return "bgr"
	case PixelU8:
		return "u8"
	default:
		return "unknown"
	}
}

// ParsePixelFormat maps a config name to a PixelFormat.
// Unrecognised names give PixelUnknown.
func ParsePixelFormat(name string) PixelFormat {
	switch name {
	case "rgb", "RGB":
		return PixelRGB
	case "bgr", "BGR":
		return PixelBGR
	case "u8", "U8":
		return PixelU8
	default:
		return PixelUnknown
	}
}

// FrameBufferInfo describes the layout of a linear framebuffer.
// Stride is measured in pixels, not bytes.
type FrameBufferInfo struct {
	Width         int
	Height        int
	Stride        int
	BytesPerPixel int
	PixelFormat   PixelFormat
}

// ByteLen returns the number of bytes the layout spans.
func (i FrameBufferInfo) ByteLen() int {
	return i.Stride * i.Height * i.BytesPerPixel
}

// FrameBuffer is the mapped pixel memory plus its layout.
type FrameBuffer struct {
	Info   FrameBufferInfo
	Buffer []byte
}

// RegionKind classifies an entry of the memory map.
type RegionKind int

const (
	RegionUsable RegionKind = iota
	RegionBootloader
	RegionReserved
)

// String returns the kind name.
func (k RegionKind) String() string {
	switch k {
	case RegionUsable:
		return "Usable"
	case RegionBootloader:
		return "Bootloader"
	default:
		return "Reserved"
	}
}

// MemoryRegion is one physical range [Start, End) of the memory map.
type MemoryRegion struct {
	Start uint64
	End   uint64
	Kind  RegionKind
}

// Size returns the region length in bytes.
func (r MemoryRegion) Size() uint64 {
	return r.End - r.Start
}

// String formats the region like the memory map dump on the serial port.
func (r MemoryRegion) String() string {
	return fmt.Sprintf("%s [%#x, %#x) %d", r.Kind, r.Start, r.End, r.Size())
}

// Info is the full boot handoff.
type Info struct {
	Framebuffer *FrameBuffer

	// PhysicalMemoryOffset is where all physical memory is mapped in the
	// kernel's virtual address space. Nil when the bootloader did not map it.
	PhysicalMemoryOffset *uint64

	MemoryRegions []MemoryRegion

	// physical backs the physical address range [0, len(physical)).
	physical []byte
}

// NewInfo assembles a boot handoff whose physical memory is backed by
// physical. Firmware code calls this; the kernel only reads the result.
func NewInfo(fb *FrameBuffer, physOffset *uint64, regions []MemoryRegion, physical []byte) *Info {
	return &Info{
		Framebuffer:          fb,
		PhysicalMemoryOffset: physOffset,
		MemoryRegions:        regions,
		physical:             physical,
	}
}

// LastUsable returns the last region marked usable in the memory map.
func (bi *Info) LastUsable() (MemoryRegion, error) {
	for i := len(bi.MemoryRegions) - 1; i >= 0; i-- {
		if bi.MemoryRegions[i].Kind == RegionUsable {
			return bi.MemoryRegions[i], nil
		}
	}
	return MemoryRegion{}, ErrNoUsableRegion
}

// Map returns the memory behind the virtual range [virt, virt+size), which
// must fall inside the physical memory mapping.
func (bi *Info) Map(virt, size uint64) ([]byte, error) {
	if bi.PhysicalMemoryOffset == nil {
		return nil, ErrNoPhysicalOffset
	}
	offset := *bi.PhysicalMemoryOffset
	if virt < offset {
		return nil, fmt.Errorf("%w: %#x below mapping at %#x", ErrUnmapped, virt, offset)
	}
	phys := virt - offset
	end := phys + size
	if end < phys || end > uint64(len(bi.physical)) {
		return nil, fmt.Errorf("%w: [%#x, %#x)", ErrUnmapped, virt, virt+size)
	}
	return bi.physical[phys:end:end], nil
}
