// Package gpio drives a HUB75 connector from Raspberry Pi GPIO lines.
package gpio

import (
	"fmt"
	"time"
)

// Pinout maps every HUB75 signal to a BCM GPIO offset
type Pinout struct {
	R1  int `yaml:"r1" mapstructure:"r1"`   // Red data for upper half
	G1  int `yaml:"g1" mapstructure:"g1"`   // Green data for upper half
	B1  int `yaml:"b1" mapstructure:"b1"`   // Blue data for upper half
	R2  int `yaml:"r2" mapstructure:"r2"`   // Red data for lower half
	G2  int `yaml:"g2" mapstructure:"g2"`   // Green data for lower half
	B2  int `yaml:"b2" mapstructure:"b2"`   // Blue data for lower half
	CLK int `yaml:"clk" mapstructure:"clk"` // Clock signal
	OE  int `yaml:"oe" mapstructure:"oe"`   // Output enable, active low
	LAT int `yaml:"lat" mapstructure:"lat"` // Latch signal
	A   int `yaml:"a" mapstructure:"a"`     // Address bit A
	B   int `yaml:"b" mapstructure:"b"`     // Address bit B
	C   int `yaml:"c" mapstructure:"c"`     // Address bit C
	D   int `yaml:"d" mapstructure:"d"`     // Address bit D
	E   int `yaml:"e" mapstructure:"e"`     // Address bit E (64 row panels)
}

// BonnetPinout is the Adafruit RGB Matrix Bonnet wiring
func BonnetPinout() Pinout {
	return Pinout{
		R1: 5, G1: 13, B1: 6,
		R2: 12, G2: 16, B2: 23,
		CLK: 17, OE: 4, LAT: 21,
		A: 22, B: 26, C: 27, D: 20, E: 24,
	}
}

// Line is a named signal on the connector
type Line struct {
	Name   string
	Offset int
}

// Index of each signal in Lines() and Offsets()
const (
	lineR1 = iota
	lineG1
	lineB1
	lineR2
	lineG2
	lineB2
	lineCLK
	lineOE
	lineLAT
	lineA
	lineB
	lineC
	lineD
	lineE
	numLines
)

// Lines lists the signals in a fixed order
func (p Pinout) Lines() []Line {
	return []Line{
		{"R1", p.R1}, {"G1", p.G1}, {"B1", p.B1},
		{"R2", p.R2}, {"G2", p.G2}, {"B2", p.B2},
		{"CLK", p.CLK}, {"OE", p.OE}, {"LAT", p.LAT},
		{"A", p.A}, {"B", p.B}, {"C", p.C}, {"D", p.D}, {"E", p.E},
	}
}

// Offsets returns the BCM offsets in Lines() order
func (p Pinout) Offsets() []int {
	lines := p.Lines()
	out := make([]int, len(lines))
	for i, l := range lines {
		out[i] = l.Offset
	}
	return out
}

// Validate rejects negative and duplicated offsets
func (p Pinout) Validate() error {
	seen := make(map[int]string)
	for _, l := range p.Lines() {
		if l.Offset < 0 {
			return fmt.Errorf("pin %s: negative offset %d", l.Name, l.Offset)
		}
		if other, ok := seen[l.Offset]; ok {
			return fmt.Errorf("pin %s: offset %d already used by %s", l.Name, l.Offset, other)
		}
		seen[l.Offset] = l.Name
	}
	return nil
}

// frame holds the value of every line, in Lines() order. OE is inverted on
// the wire: 1 here means the panel is dark.
type frame [numLines]int

func idleFrame() frame {
	var f frame
	f[lineOE] = 1
	return f
}

func (f *frame) setData(bits uint8) {
	for i := 0; i < 6; i++ {
		f[lineR1+i] = int(bits>>i) & 1
	}
}

func (f *frame) setAddress(group int) {
	for i := 0; i < 5; i++ {
		f[lineA+i] = (group >> i) & 1
	}
}

// sleep is swapped in tests
var sleep = time.Sleep
