package logging

import (
	"fmt"
	"io"
	"os"

	"go.bug.st/serial"
)

// DefaultBaud matches the diagnostic console of the panel controller
const DefaultBaud = 115200

// OpenSerial opens a serial port for diagnostic output
func OpenSerial(port string, baud int) (serial.Port, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return p, nil
}

// MirrorSerial mirrors every logger to the given serial port. The returned
// closer restores stderr-only output and closes the port.
func MirrorSerial(port string, baud int) (io.Closer, error) {
	p, err := OpenSerial(port, baud)
	if err != nil {
		return nil, err
	}
	Mirror(p)
	New("logging").Info("Mirroring logs to serial console", "port", port, "baud", baud)
	return closerFunc(func() error {
		SetOutput(os.Stderr)
		return p.Close()
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
