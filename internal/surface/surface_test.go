package surface

import (
	"errors"
	"testing"

	"golang.org/x/image/font/basicfont"

	"github.com/vovakirdan/pongos/internal/boot"
	"github.com/vovakirdan/pongos/internal/core"
)

func newSurface(t *testing.T, w, h, bpp int, format boot.PixelFormat, opts ...Option) (*Surface, []byte, boot.FrameBufferInfo) {
	t.Helper()
	info := boot.FrameBufferInfo{Width: w, Height: h, Stride: w, BytesPerPixel: bpp, PixelFormat: format}
	buf := make([]byte, info.ByteLen())
	s, err := New(buf, info, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, buf, info
}

func TestNewRejectsUnsupportedFormat(t *testing.T) {
	for _, format := range []boot.PixelFormat{boot.PixelU8, boot.PixelUnknown} {
		info := boot.FrameBufferInfo{Width: 4, Height: 4, Stride: 4, BytesPerPixel: 1, PixelFormat: format}
		if _, err := New(make([]byte, 16), info); !errors.Is(err, ErrUnsupportedPixelFormat) {
			t.Errorf("format %v: err = %v, expected ErrUnsupportedPixelFormat", format, err)
		}
	}
}

func TestNewRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name string
		info boot.FrameBufferInfo
		len  int
	}{
		{"zero width", boot.FrameBufferInfo{Width: 0, Height: 4, Stride: 4, BytesPerPixel: 4}, 64},
		{"zero bpp", boot.FrameBufferInfo{Width: 4, Height: 4, Stride: 4, BytesPerPixel: 0}, 64},
		{"stride below width", boot.FrameBufferInfo{Width: 4, Height: 4, Stride: 2, BytesPerPixel: 4}, 64},
		{"short buffer", boot.FrameBufferInfo{Width: 4, Height: 4, Stride: 4, BytesPerPixel: 4}, 63},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.info.PixelFormat = boot.PixelRGB
			if _, err := New(make([]byte, tc.len), tc.info); !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("err = %v, expected ErrInvalidGeometry", err)
			}
		})
	}
}

func TestDrawPixelRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format boot.PixelFormat
		bpp    int
		raw    []byte
	}{
		{"rgb 3", boot.PixelRGB, 3, []byte{10, 20, 30}},
		{"rgb 4", boot.PixelRGB, 4, []byte{10, 20, 30, 0}},
		{"bgr 4", boot.PixelBGR, 4, []byte{30, 20, 10, 0}},
		{"bgr 5", boot.PixelBGR, 5, []byte{30, 20, 10, 0, 0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, buf, info := newSurface(t, 8, 6, tc.bpp, tc.format)
			s.DrawPixel(3, 2, 10, 20, 30)

			offset := (2*info.Stride + 3) * tc.bpp
			for i, want := range tc.raw {
				if buf[offset+i] != want {
					t.Errorf("byte %d = %d, expected %d", i, buf[offset+i], want)
				}
			}

			got := PixelAt(buf, info, 3, 2)
			if got != (core.RGB{R: 10, G: 20, B: 30}) {
				t.Errorf("PixelAt = %+v, expected {10 20 30}", got)
			}
		})
	}
}

func TestWritePixelTint(t *testing.T) {
	tests := []struct {
		format boot.PixelFormat
		raw    [3]byte
	}{
		{boot.PixelRGB, [3]byte{50, 200, 100}},
		{boot.PixelBGR, [3]byte{100, 200, 50}},
	}

	for _, tc := range tests {
		t.Run(tc.format.String(), func(t *testing.T) {
			s, buf, _ := newSurface(t, 2, 2, 4, tc.format)
			s.WritePixel(1, 1, 200)

			offset := (1*2 + 1) * 4
			got := [3]byte{buf[offset], buf[offset+1], buf[offset+2]}
			if got != tc.raw {
				t.Errorf("pixel bytes = %v, expected %v", got, tc.raw)
			}
		})
	}
}

func TestWritePixelRespectsStride(t *testing.T) {
	info := boot.FrameBufferInfo{Width: 4, Height: 2, Stride: 6, BytesPerPixel: 3, PixelFormat: boot.PixelRGB}
	buf := make([]byte, info.ByteLen())
	s, err := New(buf, info)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	s.DrawPixel(0, 1, 1, 2, 3)
	if buf[18] != 1 || buf[19] != 2 || buf[20] != 3 {
		t.Errorf("pixel (0,1) not written at stride offset 18: %v", buf[18:21])
	}
}

func TestClear(t *testing.T) {
	s, buf, _ := newSurface(t, 16, 16, 4, boot.PixelRGB)
	s.FillRect(core.NewRect(0, 0, 16, 16), core.ColorWhite)
	s.MoveCursor(8, 8)

	s.Clear()

	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %d after Clear", i, b)
		}
	}
	if x, y := s.Cursor(); x != 0 || y != 0 {
		t.Errorf("cursor = (%d,%d) after Clear, expected origin", x, y)
	}
}

func TestFillRectClips(t *testing.T) {
	s, buf, info := newSurface(t, 10, 10, 3, boot.PixelRGB)

	s.FillRect(core.NewRect(-5, 8, 8, 8), core.ColorYellow)

	if PixelAt(buf, info, 0, 9) != core.ColorYellow {
		t.Error("visible corner of the rect was not filled")
	}
	if PixelAt(buf, info, 3, 9) != core.ColorBlack {
		t.Error("fill leaked past the rect's right edge")
	}
	if PixelAt(buf, info, 0, 7) != core.ColorBlack {
		t.Error("fill leaked above the rect")
	}
}

func TestWriteStringAdvancesCursor(t *testing.T) {
	s, buf, _ := newSurface(t, 200, 100, 4, boot.PixelRGB)
	gw, _ := s.GlyphSize()

	s.WriteString("Hi")

	if x, y := s.Cursor(); x != 2*gw || y != 0 {
		t.Errorf("cursor = (%d,%d), expected (%d,0)", x, y, 2*gw)
	}
	lit := false
	for _, b := range buf {
		if b != 0 {
			lit = true
			break
		}
	}
	if !lit {
		t.Error("text left the framebuffer blank")
	}
}

func TestWriteStringControlCharacters(t *testing.T) {
	s, _, _ := newSurface(t, 200, 100, 4, boot.PixelRGB)
	gw, gh := s.GlyphSize()

	s.WriteString("ab\ncd")
	if x, y := s.Cursor(); x != 2*gw || y != gh+LineSpacing {
		t.Errorf("after newline cursor = (%d,%d), expected (%d,%d)", x, y, 2*gw, gh+LineSpacing)
	}

	s.WriteString("\r")
	if x, _ := s.Cursor(); x != 0 {
		t.Errorf("carriage return left x at %d", x)
	}

	// Tabs and non-ASCII runes have no glyph and are skipped.
	s.WriteString("\té")
	if x, _ := s.Cursor(); x != 0 {
		t.Errorf("unprintable runes moved the cursor to x=%d", x)
	}
}

func TestWriteStringWraps(t *testing.T) {
	s, _, _ := newSurface(t, 20, 100, 4, boot.PixelRGB)
	gw, gh := s.GlyphSize()
	perLine := 20 / gw

	for i := 0; i < perLine+1; i++ {
		s.WriteString("x")
	}

	if x, y := s.Cursor(); x != gw || y != gh {
		t.Errorf("cursor = (%d,%d) after wrap, expected (%d,%d)", x, y, gw, gh)
	}
}

func TestWriteStringClearsOnOverflow(t *testing.T) {
	s, buf, info := newSurface(t, 40, 20, 4, boot.PixelRGB, WithFace(basicfont.Face7x13))
	_, gh := s.GlyphSize()
	if gh != 13 {
		t.Fatalf("Face7x13 glyph height = %d", gh)
	}

	s.FillRect(core.NewRect(0, 15, 40, 5), core.ColorWhite)
	s.WriteString("a\nb")

	// The second line does not fit, so the surface was wiped and "b" drawn
	// at the origin.
	if x, y := s.Cursor(); x != 7 || y != 0 {
		t.Errorf("cursor = (%d,%d), expected (7,0)", x, y)
	}
	if PixelAt(buf, info, 39, 19) != core.ColorBlack {
		t.Error("overflow did not clear the surface")
	}
}

func TestToImage(t *testing.T) {
	s, buf, info := newSurface(t, 4, 3, 4, boot.PixelBGR)
	s.DrawPixel(2, 1, 255, 0, 0)

	img := ToImage(buf, info)
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Fatalf("image bounds = %v", img.Bounds())
	}
	c := img.RGBAAt(2, 1)
	if c.R != 255 || c.G != 0 || c.B != 0 || c.A != 255 {
		t.Errorf("pixel = %+v, expected opaque red", c)
	}
}
