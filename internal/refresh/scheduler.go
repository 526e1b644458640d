// Package refresh runs the panel scan-out on its own timer, independent of
// whatever is drawing into the framebuffer.
package refresh

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fkcurrie/pixeltime-golang/internal/logging"
	"github.com/fkcurrie/pixeltime-golang/pkg/hub75"
)

var logger = logging.New("refresh")

const (
	// DefaultInterval gives 64 passes per composite frame (8 row groups x 8
	// planes), about 31 composite frames a second
	DefaultInterval = 500 * time.Microsecond
	// DefaultDwell is the output-enable hold per pass
	DefaultDwell = 50 * time.Microsecond
)

// Driver is the part of hub75.Driver the scheduler needs
type Driver interface {
	RefreshPass(dwell time.Duration) (hub75.ScanState, error)
	Reset()
}

// Ticker is the part of time.Ticker the scheduler needs
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Scheduler calls Driver.RefreshPass once per tick while enabled.
//
// Enable and Disable are safe to call from any goroutine. The refresh loop
// itself takes no lock.
type Scheduler struct {
	driver    Driver
	interval  time.Duration
	newTicker TickerFunc
	realtime  bool
	dwell     atomic.Int64

	passes   atomic.Uint64
	failures atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithTicker replaces the ticker factory
func WithTicker(f TickerFunc) Option {
	return func(s *Scheduler) { s.newTicker = f }
}

// WithRealtime runs the refresh loop on its own OS thread with a raised
// scheduling priority. Raising the priority needs CAP_SYS_NICE; without it
// the loop still runs at normal priority.
func WithRealtime() Option {
	return func(s *Scheduler) { s.realtime = true }
}

// New creates a disabled scheduler. Non-positive interval or dwell fall back
// to the defaults.
func New(driver Driver, interval, dwell time.Duration, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	s := &Scheduler{
		driver:    driver,
		interval:  interval,
		newTicker: NewTimeTicker,
	}
	s.dwell.Store(int64(dwell))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enable starts the refresh loop from the first row group and plane. It
// returns false if the loop was already running, in which case nothing
// changes.
func (s *Scheduler) Enable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return false
	}

	s.driver.Reset()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	ticker := s.newTicker(s.interval)
	go s.loop(ctx, ticker, s.done)

	logger.Info("Refresh enabled", "interval", s.interval, "dwell", s.Dwell())
	return true
}

// Disable stops the refresh loop and waits for the pass in progress to
// finish. It returns false if the loop was not running.
func (s *Scheduler) Disable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return false
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	logger.Info("Refresh disabled", "passes", s.passes.Load(), "failures", s.failures.Load())
	return true
}

// Running reports whether the loop is enabled
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// SetDwell changes the output-enable hold, and so the brightness, from the
// next pass on
func (s *Scheduler) SetDwell(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.dwell.Store(int64(d))
}

// Dwell returns the current output-enable hold
func (s *Scheduler) Dwell() time.Duration {
	return time.Duration(s.dwell.Load())
}

// Interval returns the time between passes
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Passes returns the number of passes attempted since creation
func (s *Scheduler) Passes() uint64 {
	return s.passes.Load()
}

// Failures returns the number of passes that returned an error
func (s *Scheduler) Failures() uint64 {
	return s.failures.Load()
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	if s.realtime {
		// never unlocked: the thread exits with the goroutine instead of
		// going back to the pool with a raised priority
		runtime.LockOSThread()
		if err := raisePriority(); err != nil {
			logger.Warn("Failed to raise refresh priority", "err", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.pass()
		}
	}
}

func (s *Scheduler) pass() {
	_, err := s.driver.RefreshPass(s.Dwell())
	s.passes.Add(1)
	if err == nil {
		return
	}
	// a broken bus fails every pass; log the first and then every 10000th
	if n := s.failures.Add(1); n == 1 || n%10000 == 0 {
		logger.Error("Refresh pass failed", "err", err, "failures", n)
	}
}
