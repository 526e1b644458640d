package display

import "github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"

// Pattern identifies a wiring test pattern
type Pattern int

const (
	PatternRed Pattern = iota
	PatternGreen
	PatternBlue
	PatternCheckerboard
	numPatterns
)

// DrawPattern draws test pattern number counter%4: solid red, green, blue,
// then an animated checkerboard
func (r *Renderer) DrawPattern(counter int) Pattern {
	p := Pattern(counter % int(numPatterns))
	switch p {
	case PatternRed:
		r.fb.Fill(framebuffer.Red)
	case PatternGreen:
		r.fb.Fill(framebuffer.Green)
	case PatternBlue:
		r.fb.Fill(framebuffer.Blue)
	case PatternCheckerboard:
		r.Checkerboard(4, counter/8, framebuffer.Yellow)
	}
	return p
}

// Checkerboard fills cellSize x cellSize squares alternately with on and
// black; phase shifts the pattern by one cell per step
func (r *Renderer) Checkerboard(cellSize, phase int, on framebuffer.Color) {
	if cellSize <= 0 {
		cellSize = 1
	}
	for y := 0; y < r.fb.Height(); y++ {
		for x := 0; x < r.fb.Width(); x++ {
			if (y/cellSize+x/cellSize+phase)%2 == 0 {
				r.fb.SetPixel(x, y, on)
			} else {
				r.fb.SetPixel(x, y, framebuffer.Black)
			}
		}
	}
}
