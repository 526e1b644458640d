package hub75

import (
	"errors"
	"testing"
	"time"

	"github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var panel32x16 = Geometry{Width: 32, Height: 16}

func newTestDriver(t *testing.T, depth int) (*Driver, *framebuffer.FrameBuffer, *VirtualPanel) {
	t.Helper()
	fb := framebuffer.New(panel32x16.Width, panel32x16.Height)
	panel := NewVirtualPanel(panel32x16)
	d := NewDriver(fb, panel, panel32x16)
	require.NoError(t, d.Begin(depth))
	return d, fb, panel
}

func TestBegin(t *testing.T) {
	tests := []struct {
		name    string
		geom    Geometry
		fbW     int
		fbH     int
		depth   int
		wantErr error
	}{
		{name: "32x16 depth 8", geom: panel32x16, fbW: 32, fbH: 16, depth: 8},
		{name: "64x32 depth 1", geom: Geometry{64, 32}, fbW: 64, fbH: 32, depth: 1},
		{name: "zero width", geom: Geometry{0, 16}, fbW: 0, fbH: 16, depth: 8, wantErr: ErrInvalidGeometry},
		{name: "zero height", geom: Geometry{32, 0}, fbW: 32, fbH: 0, depth: 8, wantErr: ErrInvalidGeometry},
		{name: "odd height", geom: Geometry{32, 15}, fbW: 32, fbH: 15, depth: 8, wantErr: ErrInvalidGeometry},
		{name: "row groups not a power of two", geom: Geometry{32, 24}, fbW: 32, fbH: 24, depth: 8, wantErr: ErrInvalidGeometry},
		{name: "too many row groups", geom: Geometry{32, 128}, fbW: 32, fbH: 128, depth: 8, wantErr: ErrInvalidGeometry},
		{name: "framebuffer mismatch", geom: panel32x16, fbW: 32, fbH: 8, depth: 8, wantErr: ErrInvalidGeometry},
		{name: "depth zero", geom: panel32x16, fbW: 32, fbH: 16, depth: 0, wantErr: ErrInvalidColorDepth},
		{name: "depth nine", geom: panel32x16, fbW: 32, fbH: 16, depth: 9, wantErr: ErrInvalidColorDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDriver(framebuffer.New(tt.fbW, tt.fbH), NewVirtualPanel(tt.geom), tt.geom)
			err := d.Begin(tt.depth)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.depth, d.ColorDepth())
		})
	}
}

func TestRefreshPassBeforeBegin(t *testing.T) {
	d := NewDriver(framebuffer.New(32, 16), NewVirtualPanel(panel32x16), panel32x16)
	_, err := d.RefreshPass(50 * time.Microsecond)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestThresholds(t *testing.T) {
	assert.Equal(t, []uint8{128}, Thresholds(1))
	assert.Equal(t, []uint8{64, 192}, Thresholds(2))
	assert.Equal(t, []uint8{16, 48, 80, 112, 144, 176, 208, 240}, Thresholds(8))
}

func TestRefreshCoverage(t *testing.T) {
	d, _, _ := newTestDriver(t, 8)
	require.Equal(t, 64, d.CycleLength())

	n := d.CycleLength()
	seen := make(map[[2]int]int)
	var order []ScanState
	for i := 0; i < 2*n; i++ {
		st, err := d.RefreshPass(time.Microsecond)
		require.NoError(t, err)
		seen[[2]int{st.RowGroup, st.Plane}]++
		order = append(order, st)
	}

	assert.Len(t, seen, 8*8)
	for k, count := range seen {
		assert.Equal(t, 2, count, "row group %d plane %d", k[0], k[1])
	}

	// the second cycle repeats the first in the same order
	for i := 0; i < n; i++ {
		assert.Equal(t, order[i], order[i+n], "pass %d", i)
	}

	// row group is the inner index
	assert.Equal(t, ScanState{Pass: 0, RowGroup: 0, Plane: 0, Threshold: 16}, order[0])
	assert.Equal(t, 1, order[1].RowGroup)
	assert.Equal(t, 0, order[1].Plane)
	assert.Equal(t, 0, order[8].RowGroup)
	assert.Equal(t, 1, order[8].Plane)

	// and the cycle wraps
	assert.Equal(t, 0, d.Position().Pass)
}

func TestReset(t *testing.T) {
	d, _, _ := newTestDriver(t, 4)
	for i := 0; i < 11; i++ {
		_, err := d.RefreshPass(time.Microsecond)
		require.NoError(t, err)
	}
	assert.Equal(t, 11, d.Position().Pass)

	d.Reset()
	st := d.Position()
	assert.Equal(t, 0, st.RowGroup)
	assert.Equal(t, 0, st.Plane)
}

func TestRefreshPassShiftsRowGroup(t *testing.T) {
	d, fb, panel := newTestDriver(t, 1)
	fb.SetPixel(0, 0, framebuffer.Red)            // upper half, group 0
	fb.SetPixel(31, 8, framebuffer.Blue)          // lower half, group 0
	fb.SetPixel(5, 1, framebuffer.Green)          // group 1, not part of this pass
	fb.SetPixel(3, 0, framebuffer.RGB(100, 0, 0)) // below the single threshold

	_, err := d.RefreshPass(10 * time.Microsecond)
	require.NoError(t, err)

	stats := panel.Stats()
	assert.Equal(t, 32, stats.Shifts)
	assert.Equal(t, 1, stats.Latches)
	assert.Equal(t, 1, stats.Pulses)

	img := panel.Expose()
	// one pulse out of an 8 group scan counts as the full row share
	assert.Equal(t, uint8(255), img.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(255), img.RGBAAt(31, 8).B)
	assert.Equal(t, uint8(0), img.RGBAAt(5, 1).G)
	assert.Equal(t, uint8(0), img.RGBAAt(3, 0).R)
}

func TestFullCycleReproducesFrame(t *testing.T) {
	d, fb, panel := newTestDriver(t, 8)
	fb.SetPixel(1, 1, framebuffer.Green)
	fb.SetPixel(10, 9, framebuffer.Blue)
	fb.SetPixel(20, 4, framebuffer.White)
	fb.SetPixel(30, 15, framebuffer.RGB(128, 0, 0))

	for i := 0; i < d.CycleLength(); i++ {
		_, err := d.RefreshPass(50 * time.Microsecond)
		require.NoError(t, err)
	}
	img := panel.Expose()

	assert.Equal(t, framebuffer.Green.RGBA(), img.RGBAAt(1, 1))
	assert.Equal(t, framebuffer.Blue.RGBA(), img.RGBAAt(10, 9))
	assert.Equal(t, framebuffer.White.RGBA(), img.RGBAAt(20, 4))
	assert.Equal(t, framebuffer.Black.RGBA(), img.RGBAAt(0, 0))
	// 128 clears planes 0..3 of 8
	assert.InDelta(t, 127, int(img.RGBAAt(30, 15).R), 1)

	// exposure was reset
	assert.Equal(t, framebuffer.Black.RGBA(), panel.Expose().RGBAAt(1, 1))
}

type failingBus struct {
	*VirtualPanel
	failLatch bool
}

func (f *failingBus) Latch() error {
	if f.failLatch {
		return errors.New("line busy")
	}
	return f.VirtualPanel.Latch()
}

func TestRefreshPassBusError(t *testing.T) {
	bus := &failingBus{VirtualPanel: NewVirtualPanel(panel32x16), failLatch: true}
	d := NewDriver(framebuffer.New(32, 16), bus, panel32x16)
	require.NoError(t, d.Begin(2))

	st, err := d.RefreshPass(time.Microsecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latch row group 0")
	assert.Equal(t, 0, st.RowGroup)
	assert.Equal(t, 1, d.Position().Pass, "cursor still advances")
}
