// Package preview renders the panel as it looks from across the room: one
// round LED per pixel on a dark board.
package preview

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/srwiley/rasterx"
)

// DefaultScale is the size in screen pixels of one LED cell
const DefaultScale = 12

// Board is the colour between LEDs
var Board = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}

// offLED is drawn for a dark pixel so the grid stays visible
var offLED = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xFF}

// Render draws src as a grid of LED dots, scale pixels per LED
func Render(src image.Image, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	b := src.Bounds()
	w, h := b.Dx()*scale, b.Dy()*scale

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: Board}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	filler := rasterx.NewFiller(w, h, scanner)

	radius := float64(scale) * 0.4
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.RGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			if c.R == 0 && c.G == 0 && c.B == 0 {
				c = offLED
			}
			c.A = 0xFF

			filler.SetColor(c)
			cx := (float64(x) + 0.5) * float64(scale)
			cy := (float64(y) + 0.5) * float64(scale)
			rasterx.AddCircle(cx, cy, radius, filler)
			filler.Draw()
			filler.Clear()
		}
	}
	return img
}

// Source supplies the image currently shown by the panel
type Source func() image.Image
