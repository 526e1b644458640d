//go:build linux

package gpio

import (
	"fmt"

	"github.com/fkcurrie/pixeltime-golang/internal/logging"
	"github.com/fkcurrie/pixeltime-golang/pkg/hub75"
	"github.com/warthog618/go-gpiocdev"
)

var logger = logging.New("gpio")

// cdevWriter sets every panel line with a single character device request
type cdevWriter struct {
	lines  *gpiocdev.Lines
	values []int
}

func (c *cdevWriter) write(f frame) error {
	copy(c.values, f[:])
	return c.lines.SetValues(c.values)
}

func (c *cdevWriter) close() error {
	return c.lines.Close()
}

// OpenCdev requests all panel lines on chip (e.g. "gpiochip0") through the
// GPIO character device
func OpenCdev(chip string, pins Pinout) (hub75.Bus, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Requesting GPIO lines", "chip", chip, "offsets", pins.Offsets())
	initial := idleFrame()
	lines, err := gpiocdev.RequestLines(chip, pins.Offsets(),
		gpiocdev.AsOutput(initial[:]...),
		gpiocdev.WithConsumer("pixeltime"))
	if err != nil {
		return nil, fmt.Errorf("failed to request lines on %s: %w", chip, err)
	}

	bus, err := newLineBus(&cdevWriter{lines: lines, values: make([]int, numLines)})
	if err != nil {
		lines.Close()
		return nil, err
	}
	return bus, nil
}
