package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Enqueuer accepts announcements; Loop implements it
type Enqueuer interface {
	Enqueue(m Message) bool
}

// Announcer fires scheduled announcements. Jobs only enqueue; the clock loop
// plays them, so the framebuffer keeps a single writer.
type Announcer struct {
	cron   *cron.Cron
	target Enqueuer
}

// NewAnnouncer creates an announcer whose schedules are read in loc
func NewAnnouncer(loc *time.Location, target Enqueuer) *Announcer {
	if loc == nil {
		loc = time.Local
	}
	return &Announcer{
		cron:   cron.New(cron.WithLocation(loc)),
		target: target,
	}
}

// Add schedules m with a standard five field cron spec
func (a *Announcer) Add(spec string, m Message) error {
	_, err := a.cron.AddFunc(spec, func() {
		logger.Debug("Announcement due", "spec", spec, "text", m.Text)
		a.target.Enqueue(m)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Len returns the number of scheduled announcements
func (a *Announcer) Len() int {
	return len(a.cron.Entries())
}

// Next returns when the earliest announcement fires next; zero if none is
// scheduled or the announcer is not running
func (a *Announcer) Next() time.Time {
	var next time.Time
	for _, e := range a.cron.Entries() {
		if next.IsZero() || (!e.Next.IsZero() && e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

// Run starts the scheduler and blocks until ctx is done
func (a *Announcer) Run(ctx context.Context) error {
	a.cron.Start()
	logger.Info("Announcements scheduled", "count", a.Len())
	<-ctx.Done()
	<-a.cron.Stop().Done()
	return nil
}
