// Package framebuffer holds the pixel grid shared between the renderer and
// the panel scan-out.
//
// Cells are stored in atomic words so the writer and the refresh goroutine
// never race on a cell. No lock covers a whole frame: a reader may catch a
// frame half way through a clear and redraw.
package framebuffer

import (
	"image"
	"image/color"
	"sync/atomic"

	"tinygo.org/x/drivers"
)

const (
	// DefaultWidth and DefaultHeight match a 32x16 HUB75 panel
	DefaultWidth  = 32
	DefaultHeight = 16
)

// FrameBuffer is a fixed size grid of colors
type FrameBuffer struct {
	width  int
	height int
	cells  []atomic.Uint32
}

// New allocates a width x height buffer, all black. Negative sizes yield an
// empty buffer.
func New(width, height int) *FrameBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &FrameBuffer{
		width:  width,
		height: height,
		cells:  make([]atomic.Uint32, width*height),
	}
}

// Width returns the number of columns
func (fb *FrameBuffer) Width() int { return fb.width }

// Height returns the number of rows
func (fb *FrameBuffer) Height() int { return fb.height }

// Bounds returns the addressable rectangle
func (fb *FrameBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.width, fb.height)
}

func (fb *FrameBuffer) contains(x, y int) bool {
	return x >= 0 && x < fb.width && y >= 0 && y < fb.height
}

// SetPixel writes one cell. Coordinates outside the grid are ignored.
func (fb *FrameBuffer) SetPixel(x, y int, c Color) {
	if !fb.contains(x, y) {
		return
	}
	fb.cells[y*fb.width+x].Store(c.pack())
}

// At reads one cell. Coordinates outside the grid read as black.
func (fb *FrameBuffer) At(x, y int) Color {
	if !fb.contains(x, y) {
		return Black
	}
	return unpack(fb.cells[y*fb.width+x].Load())
}

// Clear sets every cell to black
func (fb *FrameBuffer) Clear() {
	fb.Fill(Black)
}

// Fill sets every cell to c
func (fb *FrameBuffer) Fill(c Color) {
	v := c.pack()
	for i := range fb.cells {
		fb.cells[i].Store(v)
	}
}

// DrawImage copies img onto the buffer with its origin at (x, y). Pixels that
// fall outside the grid are clipped; fully transparent pixels are skipped.
func (fb *FrameBuffer) DrawImage(img image.Image, x, y int) {
	b := img.Bounds()
	for sy := b.Min.Y; sy < b.Max.Y; sy++ {
		for sx := b.Min.X; sx < b.Max.X; sx++ {
			px := img.At(sx, sy)
			if _, _, _, a := px.RGBA(); a == 0 {
				continue
			}
			fb.SetPixel(x+sx-b.Min.X, y+sy-b.Min.Y, FromColor(px))
		}
	}
}

// Snapshot copies the current contents into a new RGBA image
func (fb *FrameBuffer) Snapshot() *image.RGBA {
	img := image.NewRGBA(fb.Bounds())
	for y := 0; y < fb.height; y++ {
		for x := 0; x < fb.width; x++ {
			img.SetRGBA(x, y, fb.At(x, y).RGBA())
		}
	}
	return img
}

// Displayer adapts the buffer to tinygo's drivers.Displayer so tinyfont can
// draw into it
func (fb *FrameBuffer) Displayer() drivers.Displayer {
	return displayer{fb}
}

type displayer struct {
	fb *FrameBuffer
}

func (d displayer) Size() (x, y int16) {
	return int16(d.fb.width), int16(d.fb.height)
}

func (d displayer) SetPixel(x, y int16, c color.RGBA) {
	d.fb.SetPixel(int(x), int(y), Color{c.R, c.G, c.B})
}

// Display is a no-op: the refresh goroutine scans the buffer continuously
func (d displayer) Display() error {
	return nil
}
