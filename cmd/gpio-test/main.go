//go:build linux

// Command gpio-test walks the HUB75 lines one at a time so the wiring can be
// checked with a meter or a logic probe.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/warthog618/go-gpiocdev"

	"github.com/fkcurrie/pixeltime-golang/internal/logging"
	"github.com/fkcurrie/pixeltime-golang/pkg/gpio"
)

var logger = logging.New("gpio-test")

func main() {
	chip := pflag.String("chip", "gpiochip0", "GPIO chip")
	only := pflag.String("line", "", "toggle only this line (e.g. R1, CLK, OE)")
	period := pflag.Duration("period", time.Second, "time each line spends high")
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *chip, *only, *period); err != nil {
		fmt.Fprintln(os.Stderr, "gpio-test:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, chip, only string, period time.Duration) error {
	lines := gpio.BonnetPinout().Lines()
	if only != "" {
		var found []gpio.Line
		for _, l := range lines {
			if l.Name == only {
				found = append(found, l)
			}
		}
		if len(found) == 0 {
			return fmt.Errorf("unknown line %q", only)
		}
		lines = found
	}

	offsets := make([]int, len(lines))
	for i, l := range lines {
		offsets[i] = l.Offset
	}
	req, err := gpiocdev.RequestLines(chip, offsets, gpiocdev.AsOutput(make([]int, len(offsets))...),
		gpiocdev.WithConsumer("gpio-test"))
	if err != nil {
		return fmt.Errorf("failed to request lines on %s: %w", chip, err)
	}
	defer req.Close()
	logger.Info("Requested GPIO lines", "chip", chip, "count", len(lines))

	values := make([]int, len(lines))
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for i := 0; ; i = (i + 1) % len(lines) {
		for j := range values {
			values[j] = 0
		}
		values[i] = 1
		if err := req.SetValues(values); err != nil {
			logger.Warn("Failed to set values", "err", err)
		} else {
			logger.Info("Line high", "line", lines[i].Name, "gpio", lines[i].Offset)
		}

		select {
		case <-ctx.Done():
			for j := range values {
				values[j] = 0
			}
			return req.SetValues(values)
		case <-ticker.C:
		}
	}
}
