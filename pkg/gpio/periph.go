package gpio

import (
	"fmt"

	"github.com/fkcurrie/pixeltime-golang/pkg/hub75"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// periphWriter drives each line as a periph.io pin and only touches lines
// whose value changed
type periphWriter struct {
	pins []gpio.PinOut
	last frame
	init bool
}

func level(v int) gpio.Level {
	if v != 0 {
		return gpio.High
	}
	return gpio.Low
}

func (p *periphWriter) write(f frame) error {
	for i, pin := range p.pins {
		if p.init && p.last[i] == f[i] {
			continue
		}
		if err := pin.Out(level(f[i])); err != nil {
			return fmt.Errorf("%s: %w", pin, err)
		}
	}
	p.last = f
	p.init = true
	return nil
}

func (p *periphWriter) close() error {
	return nil
}

// OpenPeriph resolves every panel line with periph.io's registry
// ("GPIO<n>" names)
func OpenPeriph(pins Pinout) (hub75.Bus, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init failed: %w", err)
	}

	w := &periphWriter{}
	for _, l := range pins.Lines() {
		name := fmt.Sprintf("GPIO%d", l.Offset)
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("pin %s: gpio %s not found", l.Name, name)
		}
		w.pins = append(w.pins, p)
	}
	logger.Info("Resolved GPIO lines", "backend", "periph", "count", len(w.pins))

	return newLineBus(w)
}
