package domain

import (
	"fmt"
	"strings"
	"time"
)

// Auction clock: pure functions of (end time, now). No state, no timers;
// every viewer derives the countdown at whatever cadence it wants, so there
// is nothing to synchronize between observers.

// Remaining returns endTime - now, floored at zero.
func Remaining(endTime, now time.Time) time.Duration {
	d := endTime.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// IsOpen reports whether bids are still admissible. A product without an end
// time never closes through the clock.
func IsOpen(endTime *time.Time, now time.Time) bool {
	if endTime == nil {
		return true
	}
	return now.Before(*endTime)
}

// IsEnded is the complement of IsOpen when an end time exists.
func IsEnded(endTime *time.Time, now time.Time) bool {
	return endTime != nil && !now.Before(*endTime)
}

// FormatRemaining renders a duration the way the storefront countdown shows
// it, e.g. "2d 5h 3m 12s". Zero or negative means the auction is over.
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "Auction ended"
	}
	days := int(d / (24 * time.Hour))
	hours := int(d/time.Hour) % 24
	minutes := int(d/time.Minute) % 60
	seconds := int(d/time.Second) % 60

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if days > 0 || hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	if days > 0 || hours > 0 || minutes > 0 {
		fmt.Fprintf(&b, "%dm ", minutes)
	}
	fmt.Fprintf(&b, "%ds", seconds)
	return b.String()
}
