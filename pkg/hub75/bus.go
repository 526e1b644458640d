package hub75

import "time"

// Data line bits passed to Bus.Shift. The upper half of the panel is fed by
// R1/G1/B1, the lower half by R2/G2/B2.
const (
	BitR1 uint8 = 1 << iota
	BitG1
	BitB1
	BitR2
	BitG2
	BitB2
)

// Bus is the electrical side of a HUB75 connector.
//
// Output is blank between pulses: implementations keep OE deasserted except
// for the duration of Pulse.
type Bus interface {
	// SelectRow drives the address lines A..E with the row group index
	SelectRow(group int) error
	// Shift presents six data bits and clocks them into the column registers
	Shift(bits uint8) error
	// Latch moves the shifted columns to the output drivers
	Latch() error
	// Pulse asserts output enable for d, lighting the selected row group
	Pulse(d time.Duration) error
	// Close releases the lines
	Close() error
}
