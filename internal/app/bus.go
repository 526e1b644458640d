package app

import (
	"fmt"

	"github.com/fkcurrie/pixeltime-golang/internal/types"
	"github.com/fkcurrie/pixeltime-golang/pkg/gpio"
	"github.com/fkcurrie/pixeltime-golang/pkg/hub75"
)

// OpenBus opens the panel output selected by out. For the virtual backend the
// panel is returned as well so its light can be inspected.
func OpenBus(out types.OutputConfig, geom hub75.Geometry) (hub75.Bus, *hub75.VirtualPanel, error) {
	switch out.Backend {
	case types.BackendGPIOCdev:
		bus, err := gpio.OpenCdev(out.Chip, out.Pinout)
		return bus, nil, err
	case types.BackendPeriph:
		bus, err := gpio.OpenPeriph(out.Pinout)
		return bus, nil, err
	case types.BackendVirtual:
		panel := hub75.NewVirtualPanel(geom)
		return panel, panel, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", out.Backend)
	}
}
