package refresh

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/pixeltime-golang/pkg/framebuffer"
	"github.com/fkcurrie/pixeltime-golang/pkg/hub75"
)

type fakeDriver struct {
	mu     sync.Mutex
	passes int
	resets int
	dwells []time.Duration
	err    error
}

func (f *fakeDriver) RefreshPass(dwell time.Duration) (hub75.ScanState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passes++
	f.dwells = append(f.dwells, dwell)
	return hub75.ScanState{Pass: f.passes - 1}, f.err
}

func (f *fakeDriver) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeDriver) count() (passes, resets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passes, f.resets
}

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (f *tickerFactory) New(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *tickerFactory) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *tickerFactory) last() *manualTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[len(f.tickers)-1]
}

func TestNewDefaults(t *testing.T) {
	s := New(&fakeDriver{}, 0, 0)
	assert.Equal(t, DefaultInterval, s.Interval())
	assert.Equal(t, DefaultDwell, s.Dwell())
	assert.False(t, s.Running())
}

func TestEnableIdempotent(t *testing.T) {
	drv := &fakeDriver{}
	tf := &tickerFactory{}
	s := New(drv, time.Millisecond, 50*time.Microsecond, WithTicker(tf.New))

	assert.True(t, s.Enable())
	assert.False(t, s.Enable())
	assert.False(t, s.Enable())
	t.Cleanup(func() { s.Disable() })

	assert.Equal(t, 1, tf.created(), "only one refresh loop may run")
	_, resets := drv.count()
	assert.Equal(t, 1, resets)

	tk := tf.last()
	for i := 0; i < 5; i++ {
		tk.ch <- time.Now()
	}
	require.Eventually(t, func() bool {
		p, _ := drv.count()
		return p == 5
	}, time.Second, time.Millisecond)
	assert.Equal(t, uint64(5), s.Passes())
}

func TestDisable(t *testing.T) {
	drv := &fakeDriver{}
	tf := &tickerFactory{}
	s := New(drv, time.Millisecond, 50*time.Microsecond, WithTicker(tf.New))

	assert.False(t, s.Disable(), "disable before enable is a no-op")

	require.True(t, s.Enable())
	tk := tf.last()
	tk.ch <- time.Now()

	assert.True(t, s.Disable())
	assert.False(t, s.Disable())
	assert.False(t, s.Running())
	assert.True(t, tk.stopped.Load())

	// no pass runs once Disable returned
	passes, _ := drv.count()
	select {
	case tk.ch <- time.Now():
		t.Fatal("refresh loop still receiving ticks")
	case <-time.After(20 * time.Millisecond):
	}
	after, _ := drv.count()
	assert.Equal(t, passes, after)
}

func TestReEnableResetsCursor(t *testing.T) {
	drv := &fakeDriver{}
	tf := &tickerFactory{}
	s := New(drv, time.Millisecond, time.Microsecond, WithTicker(tf.New))

	require.True(t, s.Enable())
	require.True(t, s.Disable())
	require.True(t, s.Enable())
	t.Cleanup(func() { s.Disable() })

	_, resets := drv.count()
	assert.Equal(t, 2, resets)
	assert.Equal(t, 2, tf.created())
}

func TestSetDwellWhileRunning(t *testing.T) {
	drv := &fakeDriver{}
	tf := &tickerFactory{}
	s := New(drv, time.Millisecond, 50*time.Microsecond, WithTicker(tf.New))
	require.True(t, s.Enable())
	t.Cleanup(func() { s.Disable() })

	tk := tf.last()
	tickAndWait := func(n int) {
		tk.ch <- time.Now()
		require.Eventually(t, func() bool {
			p, _ := drv.count()
			return p == n
		}, time.Second, time.Millisecond)
	}

	tickAndWait(1)
	s.SetDwell(30 * time.Microsecond)
	tickAndWait(2)
	s.SetDwell(-1)
	tickAndWait(3)

	drv.mu.Lock()
	defer drv.mu.Unlock()
	assert.Equal(t, []time.Duration{50 * time.Microsecond, 30 * time.Microsecond, 0}, drv.dwells)
}

func TestPassFailuresCounted(t *testing.T) {
	drv := &fakeDriver{err: errors.New("bus gone")}
	tf := &tickerFactory{}
	s := New(drv, time.Millisecond, time.Microsecond, WithTicker(tf.New))
	require.True(t, s.Enable())
	t.Cleanup(func() { s.Disable() })

	tk := tf.last()
	tk.ch <- time.Now()
	tk.ch <- time.Now()

	require.Eventually(t, func() bool { return s.Failures() == 2 }, time.Second, time.Millisecond)
	assert.True(t, s.Running(), "errors do not stop refresh")
}

func TestSchedulerDrivesPanel(t *testing.T) {
	geom := hub75.Geometry{Width: 32, Height: 16}
	fb := framebuffer.New(32, 16)
	panel := hub75.NewVirtualPanel(geom)
	drv := hub75.NewDriver(fb, panel, geom)
	require.NoError(t, drv.Begin(8))
	fb.SetPixel(3, 3, framebuffer.Green)

	tf := &tickerFactory{}
	s := New(drv, time.Millisecond, 50*time.Microsecond, WithTicker(tf.New))
	require.True(t, s.Enable())

	tk := tf.last()
	for i := 0; i < drv.CycleLength(); i++ {
		tk.ch <- time.Now()
	}
	require.True(t, s.Disable())

	img := panel.Expose()
	assert.Equal(t, framebuffer.Green.RGBA(), img.RGBAAt(3, 3))
	assert.Equal(t, framebuffer.Black.RGBA(), img.RGBAAt(4, 3))
}

func TestRealtimeLoopStillRefreshes(t *testing.T) {
	drv := &fakeDriver{}
	tf := &tickerFactory{}
	s := New(drv, time.Millisecond, 0, WithTicker(tf.New), WithRealtime())
	require.True(t, s.Enable())

	tk := tf.last()
	for i := 0; i < 3; i++ {
		tk.ch <- time.Now()
	}
	require.True(t, s.Disable())

	passes, _ := drv.count()
	assert.Equal(t, 3, passes)
}
