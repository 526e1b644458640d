package types

import (
	"time"

	"github.com/fkcurrie/pixeltime-golang/pkg/gpio"
)

// Output backends
const (
	BackendGPIOCdev = "gpiocdev"
	BackendPeriph   = "periph"
	BackendVirtual  = "virtual"
)

// PanelConfig represents the LED matrix geometry
type PanelConfig struct {
	Width      int `yaml:"width" mapstructure:"width"`
	Height     int `yaml:"height" mapstructure:"height"`
	ColorDepth int `yaml:"color_depth" mapstructure:"color_depth"`
}

// RefreshConfig represents the scan-out timing
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Dwell    time.Duration `yaml:"dwell" mapstructure:"dwell"`
	// Realtime raises the priority of the refresh thread (linux)
	Realtime bool `yaml:"realtime" mapstructure:"realtime"`
}

// OutputConfig selects how the panel is driven
type OutputConfig struct {
	Backend string      `yaml:"backend" mapstructure:"backend"`
	Chip    string      `yaml:"chip" mapstructure:"chip"`
	Pinout  gpio.Pinout `yaml:"pinout" mapstructure:"pinout"`
	// Preview opens a desktop window showing the virtual panel
	Preview bool `yaml:"preview" mapstructure:"preview"`
}
