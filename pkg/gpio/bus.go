package gpio

import (
	"fmt"
	"time"
)

// lineWriter applies a full set of line values to the hardware
type lineWriter interface {
	write(f frame) error
	close() error
}

// lineBus implements hub75.Bus on top of a lineWriter. It is not safe for
// concurrent use; the refresh goroutine is its only caller.
type lineBus struct {
	w     lineWriter
	state frame
}

func newLineBus(w lineWriter) (*lineBus, error) {
	b := &lineBus{w: w, state: idleFrame()}
	if err := w.write(b.state); err != nil {
		return nil, fmt.Errorf("failed to blank panel: %w", err)
	}
	return b, nil
}

// SelectRow sets the address lines
func (b *lineBus) SelectRow(group int) error {
	b.state.setAddress(group)
	return b.w.write(b.state)
}

// Shift presents the data bits and pulses the clock
func (b *lineBus) Shift(bits uint8) error {
	b.state.setData(bits)
	b.state[lineCLK] = 1
	if err := b.w.write(b.state); err != nil {
		return err
	}
	b.state[lineCLK] = 0
	return b.w.write(b.state)
}

// Latch pulses the latch line
func (b *lineBus) Latch() error {
	b.state[lineLAT] = 1
	if err := b.w.write(b.state); err != nil {
		return err
	}
	b.state[lineLAT] = 0
	return b.w.write(b.state)
}

// Pulse enables the output for d. OE is active low.
func (b *lineBus) Pulse(d time.Duration) error {
	b.state[lineOE] = 0
	if err := b.w.write(b.state); err != nil {
		return err
	}
	sleep(d)
	b.state[lineOE] = 1
	return b.w.write(b.state)
}

// Close blanks the panel and releases the lines
func (b *lineBus) Close() error {
	b.state = idleFrame()
	werr := b.w.write(b.state)
	if err := b.w.close(); err != nil {
		return err
	}
	return werr
}
