// Package app wires the panel, the refresh scheduler and the clock into one
// running process.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fkcurrie/pixeltime-golang/internal/clock"
	"github.com/fkcurrie/pixeltime-golang/internal/display"
	"github.com/fkcurrie/pixeltime-golang/internal/logging"
	"github.com/fkcurrie/pixeltime-golang/internal/preview"
	"github.com/fkcurrie/pixeltime-golang/internal/refresh"
	"github.com/fkcurrie/pixeltime-golang/internal/types"
	"github.com/fkcurrie/pixeltime-golang/internal/web"
	"github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"
	"github.com/fkcurrie/pixeltime-golang/pkg/hub75"
)

var logger = logging.New("app")

// App owns everything the clock needs while it runs
type App struct {
	cfg *types.Config

	fb        *framebuffer.FrameBuffer
	bus       hub75.Bus
	panel     *hub75.VirtualPanel
	driver    *hub75.Driver
	scheduler *refresh.Scheduler
	renderer  *display.Renderer

	source    clock.TimeSource
	ntp       *clock.NTPSource
	loop      *clock.Loop
	announcer *clock.Announcer
	web       *web.Server

	wait      func(ctx context.Context, d time.Duration) error
	closeOnce sync.Once
}

var _ web.Backend = (*App)(nil)

// Option configures an App
type Option func(*App)

// WithBus drives bus instead of the configured backend
func WithBus(bus hub75.Bus) Option {
	return func(a *App) { a.bus = bus }
}

// WithSource replaces the configured time source
func WithSource(src clock.TimeSource) Option {
	return func(a *App) { a.source = src }
}

// WithWait replaces the context aware sleep used to hold the splash
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(a *App) { a.wait = wait }
}

// New builds the application from cfg: it opens the panel output, configures
// the driver and prepares the clock. Nothing runs until Run.
func New(cfg *types.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, wait: sleepContext}
	for _, opt := range opts {
		opt(a)
	}

	geom := hub75.Geometry{Width: cfg.Panel.Width, Height: cfg.Panel.Height}
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	a.fb = framebuffer.New(geom.Width, geom.Height)

	if a.bus == nil {
		bus, panel, err := OpenBus(cfg.Output, geom)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s output: %w", cfg.Output.Backend, err)
		}
		a.bus, a.panel = bus, panel
	} else if panel, ok := a.bus.(*hub75.VirtualPanel); ok {
		a.panel = panel
	}

	if err := a.build(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	cfg := a.cfg
	geom := hub75.Geometry{Width: cfg.Panel.Width, Height: cfg.Panel.Height}

	a.driver = hub75.NewDriver(a.fb, a.bus, geom)
	if err := a.driver.Begin(cfg.Panel.ColorDepth); err != nil {
		return err
	}
	var refreshOpts []refresh.Option
	if cfg.Refresh.Realtime {
		refreshOpts = append(refreshOpts, refresh.WithRealtime())
	}
	a.scheduler = refresh.New(a.driver, cfg.Refresh.Interval, cfg.Refresh.Dwell, refreshOpts...)
	a.renderer = display.NewRenderer(a.fb)

	loc := clock.LoadLocation(cfg.Clock.Timezone)
	if a.source == nil {
		if cfg.Clock.NTPServer != "" {
			a.ntp = clock.NewNTPSource(cfg.Clock.NTPServer, cfg.Clock.NTPInterval, loc)
			a.source = a.ntp
		} else {
			a.source = clock.NewSystemSource(loc)
		}
	}

	face, err := faceOf(cfg.Clock)
	if err != nil {
		return err
	}
	a.loop = clock.NewLoop(a.renderer, a.source, clock.WithFace(face), clock.WithTick(cfg.Clock.Tick))

	a.announcer = clock.NewAnnouncer(loc, a.loop)
	for i, ann := range cfg.Announcements {
		m, err := messageOf(ann)
		if err != nil {
			return fmt.Errorf("announcements[%d]: %w", i, err)
		}
		if err := a.announcer.Add(ann.Cron, m); err != nil {
			return fmt.Errorf("announcements[%d]: %w", i, err)
		}
	}

	if cfg.Web.Listen != "" {
		a.web = web.NewServer(a)
	}
	return nil
}

func faceOf(cfg types.ClockConfig) (clock.Face, error) {
	tc, err := framebuffer.ParseColor(cfg.Time.Color)
	if err != nil {
		return clock.Face{}, fmt.Errorf("clock.time.color: %w", err)
	}
	dc, err := framebuffer.ParseColor(cfg.Date.Color)
	if err != nil {
		return clock.Face{}, fmt.Errorf("clock.date.color: %w", err)
	}
	return clock.Face{
		Time: clock.Field{X: cfg.Time.X, Y: cfg.Time.Y, Color: tc},
		Date: clock.Field{X: cfg.Date.X, Y: cfg.Date.Y, Color: dc},
	}, nil
}

func messageOf(ann types.AnnouncementConfig) (clock.Message, error) {
	c := framebuffer.White
	if ann.Color != "" {
		var err error
		if c, err = framebuffer.ParseColor(ann.Color); err != nil {
			return clock.Message{}, err
		}
	}
	delay := ann.StepDelay
	if delay <= 0 {
		delay = clock.DefaultStepDelay
	}
	return clock.Message{Text: ann.Text, Color: c, Y: ann.Y, StepDelay: delay}, nil
}

// Run shows the splash, starts refresh and then runs the clock and its
// services until ctx is done. The panel is blanked and released on return.
// With the preview enabled Run must be called from the main goroutine.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	defer a.shutdown()

	a.showSplash()
	a.scheduler.Enable()
	if err := a.wait(ctx, a.cfg.Splash.Duration); err != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.loop.Run(gctx) })
	if a.ntp != nil {
		g.Go(func() error { return a.ntp.Run(gctx) })
	}
	if a.announcer.Len() > 0 {
		g.Go(func() error { return a.announcer.Run(gctx) })
	}
	if a.web != nil {
		g.Go(func() error { return a.web.Run(gctx, a.cfg.Web.Listen) })
	}

	if a.cfg.Output.Preview && !preview.Available {
		logger.Warn("Preview requested but this build has no window; rebuild with -tags preview")
	}
	if a.cfg.Output.Preview && preview.Available {
		err := preview.RunWindow(gctx, "PixelTime", a.previewSource(), preview.DefaultScale)
		if err != nil {
			logger.Warn("Preview window failed", "err", err)
		} else {
			logger.Info("Preview window closed")
		}
		cancel()
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) showSplash() {
	splash := a.cfg.Splash
	if splash.SVG != "" {
		err := a.drawSVG(splash.SVG)
		if err == nil {
			return
		}
		logger.Warn("Failed to draw SVG splash; using text", "path", splash.SVG, "err", err)
	}

	lines := make([]display.TextLine, 0, len(splash.Lines))
	for _, l := range splash.Lines {
		c, err := framebuffer.ParseColor(l.Color)
		if err != nil {
			c = framebuffer.White
		}
		lines = append(lines, display.TextLine{X: l.X, Y: l.Y, Text: l.Text, Color: c})
	}
	if len(lines) == 0 {
		lines = display.DefaultSplash()
	}
	a.renderer.DrawLines(lines)
}

func (a *App) drawSVG(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return a.renderer.DrawSVG(f)
}

func (a *App) previewSource() preview.Source {
	if a.panel != nil {
		return func() image.Image { return a.panel.Expose() }
	}
	return a.Frame
}

// shutdown stops refresh and pushes one blank cycle so no row stays latched
func (a *App) shutdown() {
	a.scheduler.Disable()
	a.fb.Clear()
	a.driver.Reset()
	for i := 0; i < a.driver.CycleLength(); i++ {
		if _, err := a.driver.RefreshPass(0); err != nil {
			logger.Warn("Failed to blank panel", "err", err)
			break
		}
	}
	logger.Info("Panel blanked")
}

// Close releases the panel output. It is safe to call more than once.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		if a.bus != nil {
			err = a.bus.Close()
		}
	})
	return err
}

// FrameBuffer returns the composed frame
func (a *App) FrameBuffer() *framebuffer.FrameBuffer {
	return a.fb
}

// Frame implements web.Backend
func (a *App) Frame() image.Image {
	return a.fb.Snapshot()
}

// Enqueue implements web.Backend
func (a *App) Enqueue(m clock.Message) bool {
	return a.loop.Enqueue(m)
}

// Dwell implements web.Backend
func (a *App) Dwell() time.Duration {
	return a.scheduler.Dwell()
}

// SetDwell implements web.Backend
func (a *App) SetDwell(d time.Duration) {
	a.scheduler.SetDwell(d)
}

// Status implements web.Backend
func (a *App) Status() types.Status {
	s := a.source.Now()
	st := types.Status{
		Width:      a.fb.Width(),
		Height:     a.fb.Height(),
		ColorDepth: a.driver.ColorDepth(),
		Backend:    a.cfg.Output.Backend,
		Refreshing: a.scheduler.Running(),
		Passes:     a.scheduler.Passes(),
		Failures:   a.scheduler.Failures(),
		DwellUS:    a.scheduler.Dwell().Microseconds(),
		Time:       s.TimeText(),
		Date:       s.DateText(),
		Pending:    a.loop.Pending(),
	}
	if a.ntp != nil {
		st.NTPSynced = a.ntp.Synced()
	}
	if next := a.announcer.Next(); !next.IsZero() {
		st.NextAnnounce = &next
	}
	return st
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
