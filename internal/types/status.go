package types

import (
	"time"
)

// Status represents the runtime state reported over HTTP
type Status struct {
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	ColorDepth   int        `json:"color_depth"`
	Backend      string     `json:"backend"`
	Refreshing   bool       `json:"refreshing"`
	Passes       uint64     `json:"passes"`
	Failures     uint64     `json:"failures"`
	DwellUS      int64      `json:"dwell_us"`
	Time         string     `json:"time"`
	Date         string     `json:"date"`
	NTPSynced    bool       `json:"ntp_synced"`
	Pending      int        `json:"pending_messages"`
	NextAnnounce *time.Time `json:"next_announcement,omitempty"`
}
