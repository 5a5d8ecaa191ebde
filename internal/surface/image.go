package surface

import (
	"image"
	"image/color"

	"github.com/vovakirdan/pongos/internal/boot"
	"github.com/vovakirdan/pongos/internal/core"
)

// PixelAt decodes the colour stored at (x, y) of a framebuffer laid out as
// info. Channels the pixel has no bytes for read as zero. Grayscale buffers
// decode to equal channels.
func PixelAt(buf []byte, info boot.FrameBufferInfo, x, y int) core.RGB {
	bpp := info.BytesPerPixel
	offset := (y*info.Stride + x) * bpp
	if x < 0 || y < 0 || x >= info.Width || y >= info.Height || offset+bpp > len(buf) {
		return core.ColorBlack
	}

	var px [3]byte
	copy(px[:], buf[offset:offset+bpp])

	switch info.PixelFormat {
	case boot.PixelBGR:
		return core.RGB{R: px[2], G: px[1], B: px[0]}
	case boot.PixelU8:
		return core.RGB{R: px[0], G: px[0], B: px[0]}
	default:
		return core.RGB{R: px[0], G: px[1], B: px[2]}
	}
}

// ToImage copies the visible part of a framebuffer into an RGBA image.
func ToImage(buf []byte, info boot.FrameBufferInfo) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))
	for y := 0; y < info.Height; y++ {
		for x := 0; x < info.Width; x++ {
			c := PixelAt(buf, info, x, y)
			img.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return img
}
