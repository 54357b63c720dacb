// Package shiftclock maps instants to business shift dates. The restaurant's
// day does not end at midnight: a shift opens in the late afternoon and runs
// past midnight, so receipts printed at 01:30 belong to the previous calendar
// day. This package is the single source of truth for that mapping; ingestion
// and form matching must both go through it.
package shiftclock

import (
	"fmt"
	"time"

	"github.com/lastorders/closeout/internal/common"
)

// postMidnightCutoff is the local hour below which an instant is always
// attributed to the previous day's shift, even if the configured start hour
// is earlier than usual.
const postMidnightCutoff = 3

// Clock resolves shift dates for a venue with a fixed business-day start hour
// and a fixed UTC offset. The venue this was built for trades in a zone
// without daylight saving, so a named zone buys nothing over an offset.
type Clock struct {
	zone      *time.Location
	startHour int
}

// New creates a Clock. startHour is the local hour (0-23) at which a new
// business day begins; utcOffset is the venue's offset from UTC.
func New(startHour int, utcOffset time.Duration) (*Clock, error) {
	if startHour < postMidnightCutoff || startHour > 23 {
		return nil, common.NewConfigError("business_day_start_hour",
			fmt.Errorf("hour %d out of range %d-23", startHour, postMidnightCutoff))
	}
	if utcOffset < -12*time.Hour || utcOffset > 14*time.Hour {
		return nil, common.NewConfigError("utc_offset",
			fmt.Errorf("offset %s out of range", utcOffset))
	}
	return &Clock{
		startHour: startHour,
		zone:      time.FixedZone("venue", int(utcOffset/time.Second)),
	}, nil
}

// StartHour returns the configured business-day start hour.
func (c *Clock) StartHour() int {
	return c.startHour
}

// Resolve maps any instant to the single shift date it belongs to. The
// mapping is total: every instant lands on exactly one date, with no gaps or
// overlaps across midnight.
//
// An instant before 03:00 local is post-midnight trade from last night's
// shift. An instant at or after the start hour opens (or continues) today's
// shift. The dead hours between belong to the previous day as well, so the
// rule collapses to "local hour before start hour means previous day" for any
// start hour later than the cutoff.
func (c *Clock) Resolve(instant time.Time) time.Time {
	local := instant.In(c.zone)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	switch {
	case local.Hour() < postMidnightCutoff:
		return day.AddDate(0, 0, -1)
	case local.Hour() >= c.startHour:
		return day
	default:
		return day.AddDate(0, 0, -1)
	}
}

// Location returns the venue's fixed time zone. Timestamps in POS exports
// are written in local time; parse them here before resolving.
func (c *Clock) Location() *time.Location {
	return c.zone
}

// Window returns the UTC span [start, end) of instants that Resolve assigns
// to the given shift date. Used by ingestion to filter provider records to a
// single shift.
func (c *Clock) Window(shiftDate time.Time) (start, end time.Time) {
	start = time.Date(shiftDate.Year(), shiftDate.Month(), shiftDate.Day(),
		c.startHour, 0, 0, 0, c.zone).UTC()
	end = start.Add(24 * time.Hour)
	return start, end
}
