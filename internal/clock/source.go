// Package clock samples local time and draws the clock face.
package clock

import (
	"fmt"
	"time"
)

// TimeSample is the part of the local time the clock face shows
type TimeSample struct {
	Day    int
	Month  int
	Hour   int
	Minute int
}

// SampleOf extracts a TimeSample from t in t's location
func SampleOf(t time.Time) TimeSample {
	return TimeSample{
		Day:    t.Day(),
		Month:  int(t.Month()),
		Hour:   t.Hour(),
		Minute: t.Minute(),
	}
}

// TimeText formats the sample as HH:MM
func (s TimeSample) TimeText() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// DateText formats the sample as DD/MM
func (s TimeSample) DateText() string {
	return fmt.Sprintf("%02d/%02d", s.Day, s.Month)
}

// TimeSource returns the current, already localised, time
type TimeSource interface {
	Now() TimeSample
}

// SystemSource reads the system clock in a fixed location
type SystemSource struct {
	loc *time.Location
	now func() time.Time
}

// NewSystemSource returns a source for loc; nil means time.Local
func NewSystemSource(loc *time.Location) *SystemSource {
	if loc == nil {
		loc = time.Local
	}
	return &SystemSource{loc: loc, now: time.Now}
}

// Now implements TimeSource
func (s *SystemSource) Now() TimeSample {
	return SampleOf(s.now().In(s.loc))
}

// LoadLocation resolves an IANA zone name, falling back to time.Local
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("Failed to load timezone; falling back to local", "name", name, "err", err)
		return time.Local
	}
	return loc
}
