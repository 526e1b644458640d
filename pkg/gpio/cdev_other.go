//go:build !linux

package gpio

import (
	"errors"

	"github.com/fkcurrie/pixeltime-golang/internal/logging"
	"github.com/fkcurrie/pixeltime-golang/pkg/hub75"
)

var logger = logging.New("gpio")

// OpenCdev is only available on Linux
func OpenCdev(chip string, pins Pinout) (hub75.Bus, error) {
	return nil, errors.New("gpio character device requires linux")
}
