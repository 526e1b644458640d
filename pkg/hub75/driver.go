// Package hub75 scans a framebuffer out to a HUB75 LED panel.
//
// The panel only lights one row group at a time, and each LED is either on
// or off. Colors are produced by cycling row groups and bit planes fast
// enough for the eye to integrate them.
package hub75

import (
	"errors"
	"fmt"
	"time"

	"github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"
)

const (
	// MaxColorDepth is the number of bit planes of an 8-bit channel
	MaxColorDepth = 8
	// MaxRowGroups is what five address lines (A..E) can select
	MaxRowGroups = 32

	// SafeDwellMin and SafeDwellMax bound the output-enable hold that keeps a
	// full cycle inside the refresh interval without visible flicker.
	SafeDwellMin = 30 * time.Microsecond
	SafeDwellMax = 70 * time.Microsecond
)

var (
	// ErrInvalidGeometry is returned by Begin for unusable panel sizes
	ErrInvalidGeometry = errors.New("invalid panel geometry")
	// ErrInvalidColorDepth is returned by Begin for depths outside 1..8
	ErrInvalidColorDepth = errors.New("invalid color depth")
	// ErrNotStarted is returned by RefreshPass before a successful Begin
	ErrNotStarted = errors.New("driver not started")
)

// Geometry describes the panel's addressable size
type Geometry struct {
	Width  int
	Height int
}

// RowGroups is the number of address values; each group drives one row in
// the upper half and one in the lower half.
func (g Geometry) RowGroups() int {
	return g.Height / 2
}

// Validate checks that the panel can be scanned with split upper/lower data
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, g.Width, g.Height)
	}
	if g.Height%2 != 0 {
		return fmt.Errorf("%w: height %d is not even", ErrInvalidGeometry, g.Height)
	}
	groups := g.RowGroups()
	if groups > MaxRowGroups || groups&(groups-1) != 0 {
		return fmt.Errorf("%w: %d row groups cannot be addressed", ErrInvalidGeometry, groups)
	}
	return nil
}

// ScanState identifies one refresh pass. It is computed per pass and handed
// back to the caller.
type ScanState struct {
	Pass      int   // position in the cycle, 0 .. rowGroups*planes-1
	RowGroup  int   // upper row index; the lower row is RowGroup+rowGroups
	Plane     int   // bit plane, 0 .. depth-1
	Threshold uint8 // channels brighter than this are lit on this plane
}

// Driver shifts framebuffer rows onto a Bus, one row group and bit plane per
// call to RefreshPass.
//
// RefreshPass and Reset must not be called concurrently with each other; the
// framebuffer may be written at any time.
type Driver struct {
	fb   *framebuffer.FrameBuffer
	bus  Bus
	geom Geometry

	depth      int
	thresholds []uint8
	cursor     int
	started    bool
}

// NewDriver binds a framebuffer and bus. Nothing is validated until Begin.
func NewDriver(fb *framebuffer.FrameBuffer, bus Bus, geom Geometry) *Driver {
	return &Driver{
		fb:   fb,
		bus:  bus,
		geom: geom,
	}
}

// Begin validates the configuration and prepares the bit plane thresholds.
// It is the only place the driver is configured.
func (d *Driver) Begin(colorDepth int) error {
	if err := d.geom.Validate(); err != nil {
		return err
	}
	if d.fb == nil || d.fb.Width() != d.geom.Width || d.fb.Height() != d.geom.Height {
		return fmt.Errorf("%w: framebuffer does not match %dx%d panel", ErrInvalidGeometry, d.geom.Width, d.geom.Height)
	}
	if d.bus == nil {
		return errors.New("hub75: no bus")
	}
	if colorDepth < 1 || colorDepth > MaxColorDepth {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidColorDepth, colorDepth, MaxColorDepth)
	}

	d.depth = colorDepth
	d.thresholds = Thresholds(colorDepth)
	d.cursor = 0
	d.started = true
	return nil
}

// Thresholds returns the per-plane intensity cut-offs for depth planes.
// Plane p lights a channel whose value exceeds step*p + step/2, step being
// 256/depth, so the number of lit planes tracks the channel value.
func Thresholds(depth int) []uint8 {
	step := 256 / depth
	out := make([]uint8, depth)
	for p := range out {
		out[p] = uint8(step*p + step/2)
	}
	return out
}

// Geometry returns the panel geometry
func (d *Driver) Geometry() Geometry { return d.geom }

// ColorDepth returns the depth passed to Begin
func (d *Driver) ColorDepth() int { return d.depth }

// CycleLength is the number of passes covering every row group on every plane
func (d *Driver) CycleLength() int {
	return d.geom.RowGroups() * d.depth
}

// Position returns the state the next RefreshPass will use
func (d *Driver) Position() ScanState {
	groups := d.geom.RowGroups()
	st := ScanState{Pass: d.cursor}
	if groups == 0 || d.depth == 0 {
		return st
	}
	st.RowGroup = d.cursor % groups
	st.Plane = (d.cursor / groups) % d.depth
	st.Threshold = d.thresholds[st.Plane]
	return st
}

// Reset rewinds the cursor to the first row group of the first plane
func (d *Driver) Reset() {
	d.cursor = 0
}

// RefreshPass performs one bounded unit of scan-out: shift the current row
// group for the current plane, latch, select the address, light it for dwell,
// then advance the cursor. The cursor advances even if the bus fails.
func (d *Driver) RefreshPass(dwell time.Duration) (ScanState, error) {
	if !d.started {
		return ScanState{}, ErrNotStarted
	}

	st := d.Position()
	d.cursor = (d.cursor + 1) % d.CycleLength()

	upper := st.RowGroup
	lower := st.RowGroup + d.geom.RowGroups()

	// the first bits shifted end up in the last column
	for x := d.geom.Width - 1; x >= 0; x-- {
		bits := planeBits(d.fb.At(x, upper), st.Threshold, BitR1, BitG1, BitB1) |
			planeBits(d.fb.At(x, lower), st.Threshold, BitR2, BitG2, BitB2)
		if err := d.bus.Shift(bits); err != nil {
			return st, fmt.Errorf("shift column %d: %w", x, err)
		}
	}

	if err := d.bus.Latch(); err != nil {
		return st, fmt.Errorf("latch row group %d: %w", st.RowGroup, err)
	}
	if err := d.bus.SelectRow(st.RowGroup); err != nil {
		return st, fmt.Errorf("select row group %d: %w", st.RowGroup, err)
	}
	if err := d.bus.Pulse(dwell); err != nil {
		return st, fmt.Errorf("pulse row group %d: %w", st.RowGroup, err)
	}
	return st, nil
}

func planeBits(c framebuffer.Color, threshold uint8, r, g, b uint8) uint8 {
	var bits uint8
	if c.R > threshold {
		bits |= r
	}
	if c.G > threshold {
		bits |= g
	}
	if c.B > threshold {
		bits |= b
	}
	return bits
}
