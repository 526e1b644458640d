package clock

import (
	"context"
	"time"

	"github.com/fkcurrie/pixeltime-golang/internal/logging"
	"github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"
)

var logger = logging.New("clock")

// DefaultTick is the pause between clock face redraws
const DefaultTick = time.Second

// Canvas is what the clock draws with; display.Renderer implements it
type Canvas interface {
	Clear()
	DrawText(x, y int, text string, c framebuffer.Color)
	ScrollText(y int, stepDelay time.Duration, text string, c framebuffer.Color)
}

// Field places one line of the clock face
type Field struct {
	X, Y  int
	Color framebuffer.Color
}

// Face is the layout of the clock
type Face struct {
	Time Field
	Date Field
}

// DefaultFace shows HH:MM in green on the top half and DD/MM in blue below
func DefaultFace() Face {
	return Face{
		Time: Field{X: 1, Y: 1, Color: framebuffer.Green},
		Date: Field{X: 1, Y: 9, Color: framebuffer.Blue},
	}
}

// Message is a scrolling announcement
type Message struct {
	Text      string
	Color     framebuffer.Color
	Y         int
	StepDelay time.Duration
}

// DefaultStepDelay paces announcements when none is given
const DefaultStepDelay = 50 * time.Millisecond

// Loop redraws the clock face once per tick. It is the only goroutine that
// writes the framebuffer; announcements are queued and played between ticks.
type Loop struct {
	canvas Canvas
	source TimeSource
	face   Face
	tick   time.Duration
	queue  chan Message
	wait   func(ctx context.Context, d time.Duration) error
}

// LoopOption configures a Loop
type LoopOption func(*Loop)

// WithFace replaces the default layout
func WithFace(f Face) LoopOption {
	return func(l *Loop) { l.face = f }
}

// WithTick replaces the pause between redraws
func WithTick(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.tick = d
		}
	}
}

// WithWait replaces the context aware sleep between ticks
func WithWait(wait func(ctx context.Context, d time.Duration) error) LoopOption {
	return func(l *Loop) { l.wait = wait }
}

// WithQueueSize sets how many announcements may be pending
func WithQueueSize(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.queue = make(chan Message, n)
		}
	}
}

// NewLoop creates a clock loop drawing on canvas
func NewLoop(canvas Canvas, source TimeSource, opts ...LoopOption) *Loop {
	l := &Loop{
		canvas: canvas,
		source: source,
		face:   DefaultFace(),
		tick:   DefaultTick,
		queue:  make(chan Message, 8),
		wait:   sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tick draws one clock face: clear, sample, draw time and date
func (l *Loop) Tick() TimeSample {
	l.canvas.Clear()
	s := l.source.Now()
	l.canvas.DrawText(l.face.Time.X, l.face.Time.Y, s.TimeText(), l.face.Time.Color)
	l.canvas.DrawText(l.face.Date.X, l.face.Date.Y, s.DateText(), l.face.Date.Color)
	return s
}

// Enqueue schedules an announcement. It returns false when the queue is
// full and the message was dropped.
func (l *Loop) Enqueue(m Message) bool {
	if m.StepDelay <= 0 {
		m.StepDelay = DefaultStepDelay
	}
	select {
	case l.queue <- m:
		return true
	default:
		logger.Warn("Announcement queue full; dropping message", "text", m.Text)
		return false
	}
}

// Pending returns the number of queued announcements
func (l *Loop) Pending() int {
	return len(l.queue)
}

// Run draws the clock until ctx is done, playing queued announcements
// between ticks
func (l *Loop) Run(ctx context.Context) error {
	logger.Info("Clock loop started", "tick", l.tick)
	for {
		s := l.Tick()
		logger.Debug("Clock tick", "time", s.TimeText(), "date", s.DateText())

		if err := l.wait(ctx, l.tick); err != nil {
			logger.Info("Clock loop stopped")
			return nil
		}
		l.drain(ctx)
	}
}

func (l *Loop) drain(ctx context.Context) {
	for {
		select {
		case m := <-l.queue:
			if ctx.Err() != nil {
				return
			}
			l.canvas.ScrollText(m.Y, m.StepDelay, m.Text, m.Color)
		default:
			return
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
