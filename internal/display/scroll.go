package display

// AverageGlyphWidth is the per-character allowance used to decide when a
// scrolling message has left the panel. It is narrower than the real 6 px
// advance, so the tail of a long message can still be on screen when the
// scroll ends.
const AverageGlyphWidth = 5

// ScrollState is the phase of a ScrollAnimation
type ScrollState int

const (
	ScrollIdle ScrollState = iota
	ScrollRunning
	ScrollDone
)

func (s ScrollState) String() string {
	switch s {
	case ScrollIdle:
		return "idle"
	case ScrollRunning:
		return "running"
	case ScrollDone:
		return "done"
	}
	return "unknown"
}

// ScrollAnimation walks the horizontal offsets of a scrolling message, from
// the panel width down to -(width + len*AverageGlyphWidth) inclusive. It
// cannot be paused or cancelled.
type ScrollAnimation struct {
	start  int
	end    int
	offset int
	state  ScrollState
}

// NewScrollAnimation returns an idle animation for text on a panel of the
// given width
func NewScrollAnimation(width int, text string) *ScrollAnimation {
	return &ScrollAnimation{
		start: width,
		end:   -(width + runeCount(text)*AverageGlyphWidth),
		state: ScrollIdle,
	}
}

// Next advances the animation and returns the offset to draw at. ok is false
// once the animation is done.
func (a *ScrollAnimation) Next() (offset int, ok bool) {
	switch a.state {
	case ScrollIdle:
		a.state = ScrollRunning
		a.offset = a.start
	case ScrollRunning:
		if a.offset <= a.end {
			a.state = ScrollDone
			return a.offset, false
		}
		a.offset--
	case ScrollDone:
		return a.offset, false
	}
	return a.offset, true
}

// State returns the current phase
func (a *ScrollAnimation) State() ScrollState { return a.state }

// Offset returns the last offset handed out
func (a *ScrollAnimation) Offset() int { return a.offset }

// Start returns the first offset
func (a *ScrollAnimation) Start() int { return a.start }

// End returns the last offset
func (a *ScrollAnimation) End() int { return a.end }

// Steps is the number of frames the animation draws
func (a *ScrollAnimation) Steps() int {
	return a.start - a.end + 1
}
