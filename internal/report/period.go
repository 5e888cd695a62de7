// Package report turns named reporting periods into start instants and
// renders sales summaries for export.
package report

import (
	"strings"
	"time"

	"github.com/iliyamo/motel-occupancy/internal/repository"
)

// Period names accepted by ResolvePeriod.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// ResolvePeriod converts a period name into the first check-in date of a
// sales window.  Check-in dates are stored as UTC midnight, so the result is
// UTC midnight of the calendar date the window starts on, as seen in now's
// location: today for daily, a week ago for weekly, a month ago for monthly.
// An empty name means daily.  Unknown names fail with ErrInvalidInput.
func ResolvePeriod(name string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PeriodDaily:
		return CalendarDate(now), nil
	case PeriodWeekly:
		return CalendarDate(now.AddDate(0, 0, -7)), nil
	case PeriodMonthly:
		return CalendarDate(now.AddDate(0, -1, 0)), nil
	default:
		return time.Time{}, repository.Invalidf("unknown period %q (want daily, weekly or monthly)", name)
	}
}

// CalendarDate returns UTC midnight of t's calendar date in t's own location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
