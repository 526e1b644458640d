package clock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/beevik/ntp"
)

const (
	// DefaultNTPServer is the pool queried when none is configured
	DefaultNTPServer = "fr.pool.ntp.org"
	// DefaultNTPInterval is the time between offset updates
	DefaultNTPInterval = time.Hour
)

// queryFunc matches ntp.QueryWithOptions
type queryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// NTPSource corrects the system clock with an offset measured against an NTP
// server. Until the first successful query it behaves like SystemSource.
type NTPSource struct {
	server   string
	interval time.Duration
	loc      *time.Location
	offset   atomic.Int64
	synced   atomic.Bool
	query    queryFunc
	now      func() time.Time
}

// NewNTPSource returns an unsynchronised source
func NewNTPSource(server string, interval time.Duration, loc *time.Location) *NTPSource {
	if server == "" {
		server = DefaultNTPServer
	}
	if interval <= 0 {
		interval = DefaultNTPInterval
	}
	if loc == nil {
		loc = time.Local
	}
	return &NTPSource{
		server:   server,
		interval: interval,
		loc:      loc,
		query:    ntp.QueryWithOptions,
		now:      time.Now,
	}
}

// Now implements TimeSource
func (n *NTPSource) Now() TimeSample {
	return SampleOf(n.Time())
}

// Time returns the corrected current time in the configured location
func (n *NTPSource) Time() time.Time {
	return n.now().Add(n.Offset()).In(n.loc)
}

// Offset is the last measured correction
func (n *NTPSource) Offset() time.Duration {
	return time.Duration(n.offset.Load())
}

// Synced reports whether a query has succeeded
func (n *NTPSource) Synced() bool {
	return n.synced.Load()
}

// Sync queries the server once. On failure the previous offset is kept.
func (n *NTPSource) Sync(ctx context.Context) error {
	opt := ntp.QueryOptions{Timeout: 5 * time.Second}
	if dl, ok := ctx.Deadline(); ok {
		opt.Timeout = time.Until(dl)
	}
	resp, err := n.query(n.server, opt)
	if err != nil {
		return fmt.Errorf("ntp query %s: %w", n.server, err)
	}
	if err := resp.Validate(); err != nil {
		return fmt.Errorf("ntp response from %s: %w", n.server, err)
	}
	n.offset.Store(int64(resp.ClockOffset))
	n.synced.Store(true)
	logger.Debug("NTP offset updated", "server", n.server, "offset", resp.ClockOffset, "rtt", resp.RTT)
	return nil
}

// Run syncs immediately and then every interval until ctx is done
func (n *NTPSource) Run(ctx context.Context) error {
	logger.Info("Starting NTP sync", "server", n.server, "interval", n.interval)
	n.syncAndLog(ctx)

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n.syncAndLog(ctx)
		}
	}
}

func (n *NTPSource) syncAndLog(ctx context.Context) {
	if err := n.Sync(ctx); err != nil {
		logger.Warn("NTP sync failed; keeping previous offset", "err", err, "offset", n.Offset())
	}
}
