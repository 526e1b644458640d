// Command hub75-test checks a HUB75 panel: it cycles solid red, green and
// blue with an animated checkerboard, or scrolls a line of text.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/fkcurrie/pixeltime-golang/internal/app"
	"github.com/fkcurrie/pixeltime-golang/internal/display"
	"github.com/fkcurrie/pixeltime-golang/internal/logging"
	"github.com/fkcurrie/pixeltime-golang/internal/refresh"
	"github.com/fkcurrie/pixeltime-golang/internal/types"
	"github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"
	"github.com/fkcurrie/pixeltime-golang/pkg/gpio"
	"github.com/fkcurrie/pixeltime-golang/pkg/hub75"
)

var logger = logging.New("hub75-test")

func main() {
	backend := pflag.String("backend", types.BackendGPIOCdev, "panel output: gpiocdev, periph or virtual")
	chip := pflag.String("chip", "gpiochip0", "GPIO chip for the gpiocdev backend")
	width := pflag.Int("width", framebuffer.DefaultWidth, "panel width in pixels")
	height := pflag.Int("height", framebuffer.DefaultHeight, "panel height in pixels")
	depth := pflag.Int("depth", hub75.MaxColorDepth, "bit planes per colour channel")
	dwell := pflag.Duration("dwell", refresh.DefaultDwell, "output-enable hold per refresh pass")
	text := pflag.String("text", "", "scroll this text instead of showing test patterns")
	color := pflag.String("color", "red", "text colour")
	frame := pflag.Duration("frame", 50*time.Millisecond, "time between pattern frames or scroll steps")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	logging.SetVerbose(*verbose)

	if err := run(*backend, *chip, *width, *height, *depth, *dwell, *text, *color, *frame); err != nil {
		fmt.Fprintln(os.Stderr, "hub75-test:", err)
		os.Exit(1)
	}
}

func run(backend, chip string, width, height, depth int, dwell time.Duration, text, colorName string, frame time.Duration) error {
	c, err := framebuffer.ParseColor(colorName)
	if err != nil {
		return err
	}

	geom := hub75.Geometry{Width: width, Height: height}
	if err := geom.Validate(); err != nil {
		return err
	}
	bus, panel, err := app.OpenBus(types.OutputConfig{
		Backend: backend,
		Chip:    chip,
		Pinout:  gpio.BonnetPinout(),
	}, geom)
	if err != nil {
		return err
	}
	defer bus.Close()

	fb := framebuffer.New(width, height)
	driver := hub75.NewDriver(fb, bus, geom)
	if err := driver.Begin(depth); err != nil {
		return err
	}
	scheduler := refresh.New(driver, refresh.DefaultInterval, dwell)
	renderer := display.NewRenderer(fb)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Enable()
	logger.Info("HUB75 test started", "backend", backend, "panel", fmt.Sprintf("%dx%d", width, height), "depth", depth)

	if text != "" {
		scroll(ctx, renderer, text, c, frame)
	} else {
		patterns(ctx, renderer, frame)
	}

	scheduler.Disable()
	fb.Clear()
	logger.Info("HUB75 test stopped", "passes", scheduler.Passes(), "failures", scheduler.Failures())
	if panel != nil {
		st := panel.Stats()
		logger.Info("Virtual panel activity", "shifts", st.Shifts, "latches", st.Latches, "pulses", st.Pulses)
	}
	return nil
}

// scroll repeats the text, vertically centred, until ctx is done. A scroll
// in progress always finishes.
func scroll(ctx context.Context, r *display.Renderer, text string, c framebuffer.Color, step time.Duration) {
	y := (r.FrameBuffer().Height() - 7) / 2
	for ctx.Err() == nil {
		r.ScrollText(y, step, text, c)
	}
}

func patterns(ctx context.Context, r *display.Renderer, frame time.Duration) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	last := display.Pattern(-1)
	for counter := 0; ; counter++ {
		if p := r.DrawPattern(counter); p != last {
			logger.Debug("Pattern", "pattern", p, "frame", counter)
			last = p
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
