package hub75

import (
	"image"
	"image/color"
	"sync"
	"time"
)

// VirtualPanel is an in-memory Bus that models the panel's shift registers
// and integrates the light each LED emits, the way an eye or a camera would.
type VirtualPanel struct {
	geom Geometry

	mu       sync.Mutex
	shift    []uint8
	latched  []uint8
	row      int
	light    []time.Duration // per pixel and channel: on-time
	exposure time.Duration   // total pulse time since the last Expose
	stats    PanelStats
	closed   bool
}

// PanelStats counts bus activity
type PanelStats struct {
	Shifts  int
	Latches int
	Pulses  int
	Selects int
}

// NewVirtualPanel returns a dark panel of the given geometry
func NewVirtualPanel(geom Geometry) *VirtualPanel {
	w, h := geom.Width, geom.Height
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &VirtualPanel{
		geom:    geom,
		shift:   make([]uint8, w),
		latched: make([]uint8, w),
		light:   make([]time.Duration, w*h*3),
	}
}

// SelectRow implements Bus
func (v *VirtualPanel) SelectRow(group int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.row = group & (MaxRowGroups - 1)
	v.stats.Selects++
	return nil
}

// Shift implements Bus. New data enters at column 0 and everything already
// in the register moves one column further along.
func (v *VirtualPanel) Shift(bits uint8) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.shift) > 0 {
		copy(v.shift[1:], v.shift[:len(v.shift)-1])
		v.shift[0] = bits
	}
	v.stats.Shifts++
	return nil
}

// Latch implements Bus
func (v *VirtualPanel) Latch() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	copy(v.latched, v.shift)
	v.stats.Latches++
	return nil
}

// Pulse implements Bus. It does not sleep; the on-time is only accounted.
func (v *VirtualPanel) Pulse(d time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.stats.Pulses++
	v.exposure += d

	groups := v.geom.RowGroups()
	if groups == 0 || v.row >= groups {
		return nil
	}
	upper := v.row
	lower := v.row + groups
	for x, bits := range v.latched {
		v.accumulate(x, upper, bits, BitR1, BitG1, BitB1, d)
		v.accumulate(x, lower, bits, BitR2, BitG2, BitB2, d)
	}
	return nil
}

func (v *VirtualPanel) accumulate(x, y int, bits, r, g, b uint8, d time.Duration) {
	i := (y*v.geom.Width + x) * 3
	if bits&r != 0 {
		v.light[i] += d
	}
	if bits&g != 0 {
		v.light[i+1] += d
	}
	if bits&b != 0 {
		v.light[i+2] += d
	}
}

// Close implements Bus
func (v *VirtualPanel) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

// Closed reports whether Close was called
func (v *VirtualPanel) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Stats returns the bus activity counters
func (v *VirtualPanel) Stats() PanelStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stats
}

// Expose returns the perceived image since the previous call and starts a
// new exposure. A channel lit on every plane of every scan reads as 255.
func (v *VirtualPanel) Expose() *image.RGBA {
	v.mu.Lock()
	defer v.mu.Unlock()

	img := v.perceived()
	for i := range v.light {
		v.light[i] = 0
	}
	v.exposure = 0
	return img
}

func (v *VirtualPanel) perceived() *image.RGBA {
	w, h := v.geom.Width, v.geom.Height
	img := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	groups := v.geom.RowGroups()
	if groups == 0 || v.exposure == 0 {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xFF
		}
		return img
	}

	// each row is only lit for its share of the scan
	full := v.exposure / time.Duration(groups)
	level := func(on time.Duration) uint8 {
		if on >= full {
			return 255
		}
		return uint8(int64(on) * 255 / int64(full))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			img.SetRGBA(x, y, color.RGBA{
				R: level(v.light[i]),
				G: level(v.light[i+1]),
				B: level(v.light[i+2]),
				A: 255,
			})
		}
	}
	return img
}
