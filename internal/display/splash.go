package display

import (
	"fmt"
	"image"
	"io"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"
)

// TextLine is a piece of text placed at a fixed position
type TextLine struct {
	X, Y  int
	Text  string
	Color framebuffer.Color
}

// DefaultSplash is shown while the clock starts
func DefaultSplash() []TextLine {
	return []TextLine{
		{X: 2, Y: 0, Text: "Pixel", Color: framebuffer.Cyan},
		{X: 2, Y: 8, Text: "Time", Color: framebuffer.Magenta},
	}
}

// DrawLines clears the frame and draws each line
func (r *Renderer) DrawLines(lines []TextLine) {
	r.fb.Clear()
	for _, l := range lines {
		r.DrawText(l.X, l.Y, l.Text, l.Color)
	}
}

// DrawSVG rasterises an SVG document scaled to the whole panel
func (r *Renderer) DrawSVG(src io.Reader) error {
	icon, err := oksvg.ReadIconStream(src, oksvg.WarnErrorMode)
	if err != nil {
		return fmt.Errorf("failed to parse svg: %w", err)
	}

	w, h := r.fb.Width(), r.fb.Height()
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	r.fb.Clear()
	r.fb.DrawImage(img, 0, 0)
	return nil
}
