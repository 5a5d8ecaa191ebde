package tui

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/pongos/internal/core"
)

// upperHalf paints the top pixel of a cell in the foreground colour and the
// bottom pixel in the background colour, so one row holds two scanlines.
const upperHalf = "▀"

// cellColors is the pixel pair shown by one terminal cell.
type cellColors struct {
	top, bottom core.RGB
}

// FitFrame returns the pixel size a w x h frame is scaled to so that it fits
// cols x rows terminal cells, keeping the aspect ratio. Each cell is one
// pixel wide and two pixels tall.
func FitFrame(w, h, cols, rows int) (int, int) {
	if w <= 0 || h <= 0 || cols <= 0 || rows <= 0 {
		return 0, 0
	}
	maxH := rows * 2
	outW, outH := cols, cols*h/w
	if outH > maxH {
		outW, outH = maxH*w/h, maxH
	}
	return core.Max(outW, 1), core.Max(outH, 1)
}

// RenderFrame draws img into a cols x rows block of half-block cells using
// nearest-neighbour sampling. Adjacent cells with the same colours share
// one style to keep the escape sequences short.
func RenderFrame(img *image.RGBA, cols, rows int) string {
	b := img.Bounds()
	outW, outH := FitFrame(b.Dx(), b.Dy(), cols, rows)
	if outW == 0 {
		return ""
	}

	sample := func(ox, oy int) core.RGB {
		if oy >= outH {
			return core.ColorBlack
		}
		c := img.RGBAAt(b.Min.X+ox*b.Dx()/outW, b.Min.Y+oy*b.Dy()/outH)
		return core.RGB{R: c.R, G: c.G, B: c.B}
	}

	styles := make(map[cellColors]lipgloss.Style)
	styleFor := func(cc cellColors) lipgloss.Style {
		st, ok := styles[cc]
		if !ok {
			st = lipgloss.NewStyle().
				Foreground(lipgloss.Color(cc.top.Hex())).
				Background(lipgloss.Color(cc.bottom.Hex()))
			styles[cc] = st
		}
		return st
	}

	lines := (outH + 1) / 2
	var sb strings.Builder
	sb.Grow(outW * lines * 2)

	for row := 0; row < lines; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}
		x := 0
		for x < outW {
			start := cellColors{top: sample(x, row*2), bottom: sample(x, row*2+1)}
			n := 0
			for x < outW {
				cc := cellColors{top: sample(x, row*2), bottom: sample(x, row*2+1)}
				if cc != start {
					break
				}
				n++
				x++
			}
			sb.WriteString(styleFor(start).Render(strings.Repeat(upperHalf, n)))
		}
	}
	return sb.String()
}
