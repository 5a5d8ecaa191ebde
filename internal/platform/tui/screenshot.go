package tui

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

// DefaultScreenshotDir returns ~/.pongos/screenshots.
func DefaultScreenshotDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot get home directory: %w", err)
	}
	return filepath.Join(home, ".pongos", "screenshots"), nil
}

// ScreenshotPath names a screenshot taken at t.
func ScreenshotPath(dir string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("pongos_%s.png", t.Format("20060102_150405")))
}

// SaveScreenshot writes img to path as a PNG, enlarged scale times with
// hard pixel edges. A non-empty caption is stamped in the bottom-left
// corner.
func SaveScreenshot(img image.Image, path string, scale int, caption string) error {
	if scale < 1 {
		scale = 1
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)

	dc := gg.NewContextForRGBA(dst)
	if caption != "" {
		dc.SetRGB(0.6, 0.6, 0.6)
		dc.DrawStringAnchored(caption, 4, float64(dst.Bounds().Dy()-4), 0, 0)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create screenshot directory: %w", err)
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("cannot save screenshot: %w", err)
	}
	return nil
}
