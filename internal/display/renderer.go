// Package display composes text and images into the framebuffer.
package display

import (
	"time"
	"unicode/utf8"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"github.com/fkcurrie/pixeltime-golang/internal/font"
	"github.com/fkcurrie/pixeltime-golang/internal/logging"
	"github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"
)

var logger = logging.New("display")

// Renderer is the single writer of the framebuffer
type Renderer struct {
	fb     *framebuffer.FrameBuffer
	canvas drivers.Displayer
	font   tinyfont.Fonter
	sleep  func(time.Duration)
}

// Option configures a Renderer
type Option func(*Renderer)

// WithSleep replaces the wait used between scroll steps
func WithSleep(sleep func(time.Duration)) Option {
	return func(r *Renderer) { r.sleep = sleep }
}

// WithFont replaces the default 5x7 font. The font must use the same
// baseline convention (top row Ascent pixels above the baseline).
func WithFont(f tinyfont.Fonter) Option {
	return func(r *Renderer) { r.font = f }
}

// NewRenderer creates a new renderer drawing into fb
func NewRenderer(fb *framebuffer.FrameBuffer, opts ...Option) *Renderer {
	r := &Renderer{
		fb:     fb,
		canvas: fb.Displayer(),
		font:   font.Font5x7,
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FrameBuffer returns the buffer being drawn into
func (r *Renderer) FrameBuffer() *framebuffer.FrameBuffer {
	return r.fb
}

// Clear blanks the whole frame
func (r *Renderer) Clear() {
	r.fb.Clear()
}

// DrawText draws text with (x, y) at the top-left corner of the first glyph.
// There is no wrapping; anything off the panel is clipped.
func (r *Renderer) DrawText(x, y int, text string, c framebuffer.Color) {
	tinyfont.WriteLine(r.canvas, r.font, int16(x), int16(y+font.Ascent), text, c.RGBA())
}

// TextWidth returns the advance of text in pixels
func (r *Renderer) TextWidth(text string) int {
	if text == "" {
		return 0
	}
	_, w := tinyfont.LineWidth(r.font, text)
	return int(w)
}

// ScrollText moves text from the right edge off the left edge on row y,
// blocking until it has gone. Each step waits stepDelay and then a further
// stepDelay/5. Refresh keeps running in its own goroutine meanwhile.
func (r *Renderer) ScrollText(y int, stepDelay time.Duration, text string, c framebuffer.Color) {
	anim := NewScrollAnimation(r.fb.Width(), text)
	logger.Debug("Scrolling text", "text", text, "width", r.TextWidth(text), "from", anim.Start(), "to", anim.End())

	for offset, ok := anim.Next(); ok; offset, ok = anim.Next() {
		r.fb.Clear()
		r.DrawText(offset, y, text, c)
		r.sleep(stepDelay)
		r.sleep(stepDelay / 5)
	}
}

func runeCount(s string) int {
	return utf8.RuneCountInString(s)
}
