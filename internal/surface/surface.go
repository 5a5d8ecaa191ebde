// Package surface draws into the raw linear framebuffer handed over at boot.
// It knows the framebuffer's channel order and carries a text cursor for
// rendering strings with a fixed-width bitmap font.
package surface

import (
	"errors"
	"fmt"
	"image"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"

	"github.com/vovakirdan/pongos/internal/boot"
	"github.com/vovakirdan/pongos/internal/core"
)

// LineSpacing is the extra vertical space between text lines, in pixels.
const LineSpacing = 0

var (
	// ErrUnsupportedPixelFormat means the framebuffer uses a channel order
	// the surface cannot draw. Rendering cannot proceed without it.
	ErrUnsupportedPixelFormat = errors.New("surface: unsupported pixel format")

	// ErrInvalidGeometry means the framebuffer layout does not describe the
	// buffer it came with.
	ErrInvalidGeometry = errors.New("surface: invalid framebuffer geometry")
)

// Surface owns the framebuffer memory for the lifetime of the kernel.
type Surface struct {
	buf  []byte
	info boot.FrameBufferInfo
	face *basicfont.Face

	// Text cursor, top-left corner of the next glyph.
	x, y int
}

// Option configures a Surface.
type Option func(*Surface)

// WithFace selects the bitmap font used for text. The default is
// Inconsolata 8x16.
func WithFace(face *basicfont.Face) Option {
	return func(s *Surface) {
		if face != nil {
			s.face = face
		}
	}
}

// New wraps buf, laid out as info, and clears it.
func New(buf []byte, info boot.FrameBufferInfo, opts ...Option) (*Surface, error) {
	switch info.PixelFormat {
	case boot.PixelRGB, boot.PixelBGR:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPixelFormat, info.PixelFormat)
	}
	if info.Width <= 0 || info.Height <= 0 || info.BytesPerPixel <= 0 || info.Stride < info.Width {
		return nil, fmt.Errorf("%w: %dx%d stride=%d bpp=%d",
			ErrInvalidGeometry, info.Width, info.Height, info.Stride, info.BytesPerPixel)
	}
	if len(buf) < info.ByteLen() {
		return nil, fmt.Errorf("%w: buffer is %d bytes, layout needs %d",
			ErrInvalidGeometry, len(buf), info.ByteLen())
	}

	s := &Surface{
		buf:  buf,
		info: info,
		face: inconsolata.Regular8x16,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Clear()
	return s, nil
}

// Width returns the visible width in pixels.
func (s *Surface) Width() int {
	return s.info.Width
}

// Height returns the visible height in pixels.
func (s *Surface) Height() int {
	return s.info.Height
}

// Info returns the framebuffer layout.
func (s *Surface) Info() boot.FrameBufferInfo {
	return s.info
}

// WritePixel sets (x, y) to a tinted gray of the given intensity.
// The caller must keep (x, y) inside the surface.
func (s *Surface) WritePixel(x, y int, intensity uint8) {
	s.putPixel(x, y, core.Gray(intensity))
}

// DrawPixel sets (x, y) to the colour (r, g, b).
// The caller must keep (x, y) inside the surface.
func (s *Surface) DrawPixel(x, y int, r, g, b uint8) {
	s.putPixel(x, y, core.RGB{R: r, G: g, B: b})
}

// putPixel stores c in the framebuffer's channel order. Bytes past the
// third channel are zeroed and channels past bytes-per-pixel are dropped.
// It does not clip.
func (s *Surface) putPixel(x, y int, c core.RGB) {
	var px [4]byte
	if s.info.PixelFormat == boot.PixelBGR {
		px = [4]byte{c.B, c.G, c.R, 0}
	} else {
		px = [4]byte{c.R, c.G, c.B, 0}
	}

	bpp := s.info.BytesPerPixel
	offset := (y*s.info.Stride + x) * bpp
	dst := s.buf[offset : offset+bpp]
	n := copy(dst, px[:])
	clear(dst[n:])
}

// Clear zero-fills the framebuffer and moves the text cursor home.
func (s *Surface) Clear() {
	s.x = 0
	s.y = 0
	clear(s.buf)
}

// FillRect paints the part of r that is on screen.
func (s *Surface) FillRect(r core.Rect, c core.RGB) {
	r = r.Clip(s.info.Width, s.info.Height)
	for y := r.Y; y < r.Bottom(); y++ {
		for x := r.X; x < r.Right(); x++ {
			s.putPixel(x, y, c)
		}
	}
}

// MoveCursor places the text cursor at pixel (x, y).
func (s *Surface) MoveCursor(x, y int) {
	s.x = core.Clamp(x, 0, s.info.Width)
	s.y = core.Clamp(y, 0, s.info.Height)
}

// Cursor returns the text cursor position.
func (s *Surface) Cursor() (int, int) {
	return s.x, s.y
}

// GlyphSize returns the cell size of one character.
func (s *Surface) GlyphSize() (int, int) {
	return s.face.Advance, s.face.Height
}

// Write renders p as UTF-8 text at the cursor. It never fails.
func (s *Surface) Write(p []byte) (int, error) {
	for i := 0; i < len(p); {
		r, size := utf8.DecodeRune(p[i:])
		s.writeRune(r)
		i += size
	}
	return len(p), nil
}

// WriteString renders str at the cursor. It never fails.
func (s *Surface) WriteString(str string) (int, error) {
	for _, r := range str {
		s.writeRune(r)
	}
	return len(str), nil
}

func (s *Surface) writeRune(r rune) {
	switch r {
	case '\n':
		s.newline()
	case '\r':
		s.carriageReturn()
	default:
		if !unicode.IsPrint(r) {
			return
		}
		s.drawGlyph(r)
	}
}

func (s *Surface) newline() {
	s.y += s.face.Height + LineSpacing
	s.carriageReturn()
}

func (s *Surface) carriageReturn() {
	s.x = 0
}

// drawGlyph rasterizes r at the cursor, wrapping or clearing first when it
// would not fit. Runes the font has no glyph for are skipped.
func (s *Surface) drawGlyph(r rune) {
	dr, mask, maskp, advance, ok := s.face.Glyph(fixed.P(0, s.face.Ascent), r)
	if !ok {
		return
	}
	w, h := dr.Dx(), dr.Dy()

	if s.x+w > s.info.Width {
		s.newline()
	}
	if s.y+h > s.info.Height {
		s.Clear()
	}

	for gy := 0; gy < h; gy++ {
		py := s.y + gy
		if py >= s.info.Height {
			break
		}
		for gx := 0; gx < w; gx++ {
			px := s.x + dr.Min.X + gx
			if px < 0 || px >= s.info.Width {
				continue
			}
			s.WritePixel(px, py, alphaAt(mask, maskp.X+gx, maskp.Y+gy))
		}
	}
	s.x += advance.Round()
}

// alphaAt reads glyph coverage from a font mask.
func alphaAt(m image.Image, x, y int) uint8 {
	if a, ok := m.(*image.Alpha); ok {
		return a.AlphaAt(x, y).A
	}
	_, _, _, a := m.At(x, y).RGBA()
	return uint8(a >> 8)
}
