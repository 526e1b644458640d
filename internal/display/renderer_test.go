package display

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"
)

func litPixels(fb *framebuffer.FrameBuffer) map[[2]int]framebuffer.Color {
	lit := make(map[[2]int]framebuffer.Color)
	for y := 0; y < fb.Height(); y++ {
		for x := 0; x < fb.Width(); x++ {
			if c := fb.At(x, y); !c.IsBlack() {
				lit[[2]int{x, y}] = c
			}
		}
	}
	return lit
}

func TestDrawTextTime(t *testing.T) {
	fb := framebuffer.New(32, 16)
	r := NewRenderer(fb)

	r.DrawText(1, 1, "12:45", framebuffer.Green)

	// '1' occupies columns 1..5, its stem is column 3
	for y := 1; y <= 7; y++ {
		assert.Equal(t, framebuffer.Green, fb.At(3, y), "stem at y=%d", y)
	}

	lit := litPixels(fb)
	require.NotEmpty(t, lit)
	for p, c := range lit {
		assert.Equal(t, framebuffer.Green, c)
		assert.GreaterOrEqual(t, p[0], 1)
		assert.Less(t, p[0], 1+5*6)
		assert.GreaterOrEqual(t, p[1], 1)
		assert.LessOrEqual(t, p[1], 7)
	}
}

func TestDrawTextClipped(t *testing.T) {
	fb := framebuffer.New(32, 16)
	r := NewRenderer(fb)

	r.DrawText(-3, 12, "WIDE TEXT THAT DOES NOT FIT", framebuffer.Red)

	lit := litPixels(fb)
	require.NotEmpty(t, lit)
	for p := range lit {
		assert.GreaterOrEqual(t, p[1], 12)
	}
}

func TestTextWidth(t *testing.T) {
	r := NewRenderer(framebuffer.New(32, 16))
	assert.Equal(t, 30, r.TextWidth("12:45"))
	assert.Equal(t, 0, r.TextWidth(""))
}

func TestScrollAnimationSpan(t *testing.T) {
	anim := NewScrollAnimation(32, "HI")
	assert.Equal(t, ScrollIdle, anim.State())

	var offsets []int
	for off, ok := anim.Next(); ok; off, ok = anim.Next() {
		assert.Equal(t, ScrollRunning, anim.State())
		offsets = append(offsets, off)
	}

	assert.Equal(t, ScrollDone, anim.State())
	require.Len(t, offsets, 75)
	assert.Equal(t, 75, anim.Steps())
	assert.Equal(t, 32, offsets[0])
	assert.Equal(t, -42, offsets[len(offsets)-1])
	for i := 1; i < len(offsets); i++ {
		assert.Equal(t, offsets[i-1]-1, offsets[i])
	}

	// stays done
	_, ok := anim.Next()
	assert.False(t, ok)
}

func TestScrollAnimationTerminates(t *testing.T) {
	for _, text := range []string{"", "A", "HELLO WORLD", strings.Repeat("x", 200), "été"} {
		for _, width := range []int{0, 1, 32, 64} {
			anim := NewScrollAnimation(width, text)
			steps := 0
			for _, ok := anim.Next(); ok; _, ok = anim.Next() {
				steps++
				require.LessOrEqual(t, steps, anim.Steps())
			}
			assert.Equal(t, width+width+len([]rune(text))*AverageGlyphWidth+1, steps, "%q on %d", text, width)
		}
	}
}

func TestScrollText(t *testing.T) {
	fb := framebuffer.New(32, 16)
	var waits []time.Duration
	r := NewRenderer(fb, WithSleep(func(d time.Duration) {
		waits = append(waits, d)
	}))

	r.ScrollText(4, 50*time.Millisecond, "HI", framebuffer.Red)

	require.Len(t, waits, 2*75)
	for i := 0; i < len(waits); i += 2 {
		assert.Equal(t, 50*time.Millisecond, waits[i])
		assert.Equal(t, 10*time.Millisecond, waits[i+1])
	}

	// the last frame is drawn fully off panel
	assert.Empty(t, litPixels(fb))
}

func TestScrollTextFrames(t *testing.T) {
	fb := framebuffer.New(32, 16)
	var frames []map[[2]int]framebuffer.Color
	step := 0
	r := NewRenderer(fb, WithSleep(func(time.Duration) {
		if step%2 == 0 {
			frames = append(frames, litPixels(fb))
		}
		step++
	}))

	r.ScrollText(0, time.Millisecond, "I", framebuffer.White)

	// first frame is drawn at x=32, fully off the right edge
	assert.Empty(t, frames[0])
	// at offset 0 'I' shows its stem in column 2
	atZero := frames[32]
	assert.Equal(t, framebuffer.White, atZero[[2]int{2, 3}])
	for p := range atZero {
		assert.Less(t, p[0], 5)
	}
}

func TestDrawLinesSplash(t *testing.T) {
	fb := framebuffer.New(32, 16)
	r := NewRenderer(fb)
	fb.Fill(framebuffer.White)

	r.DrawLines(DefaultSplash())

	lit := litPixels(fb)
	require.NotEmpty(t, lit)
	for p, c := range lit {
		if p[1] < 8 {
			assert.Equal(t, framebuffer.Cyan, c)
		} else {
			assert.Equal(t, framebuffer.Magenta, c)
		}
	}
}

func TestDrawSVG(t *testing.T) {
	fb := framebuffer.New(32, 16)
	r := NewRenderer(fb)

	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 32 16" width="32" height="16">
<rect x="0" y="0" width="16" height="16" fill="#ff0000"/>
</svg>`
	require.NoError(t, r.DrawSVG(strings.NewReader(svg)))

	assert.Equal(t, framebuffer.Red, fb.At(4, 8))
	assert.Equal(t, framebuffer.Black, fb.At(28, 8))
}

func TestDrawSVGInvalid(t *testing.T) {
	r := NewRenderer(framebuffer.New(32, 16))
	assert.Error(t, r.DrawSVG(strings.NewReader("not svg at all <")))
}

func TestDrawPattern(t *testing.T) {
	fb := framebuffer.New(32, 16)
	r := NewRenderer(fb)

	assert.Equal(t, PatternRed, r.DrawPattern(0))
	assert.Equal(t, framebuffer.Red, fb.At(10, 10))
	assert.Equal(t, PatternBlue, r.DrawPattern(6))
	assert.Equal(t, framebuffer.Blue, fb.At(0, 0))

	assert.Equal(t, PatternCheckerboard, r.DrawPattern(3))
	assert.Equal(t, framebuffer.Yellow, fb.At(0, 0))
	assert.Equal(t, framebuffer.Black, fb.At(4, 0))
	assert.Equal(t, framebuffer.Yellow, fb.At(4, 4))
}
