package core

import "fmt"

// RGB is a colour as three 8-bit channels, independent of any framebuffer's
// byte order.
type RGB struct {
	R, G, B uint8
}

// Predefined colours for the kernel's drawing.
var (
	ColorBlack   = RGB{0, 0, 0}
	ColorWhite   = RGB{255, 255, 255}
	ColorYellow  = RGB{255, 255, 0}
	ColorGreen   = RGB{0, 255, 0}
	ColorDimGray = RGB{50, 50, 50}
)

// Gray returns the tinted grayscale colour used for text: one intensity
// byte spread across the channels at quarter/full/half strength.
func Gray(intensity uint8) RGB {
	return RGB{R: intensity / 4, G: intensity, B: intensity / 2}
}

// Hex returns the colour in #rrggbb notation.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
