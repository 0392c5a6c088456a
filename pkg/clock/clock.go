package clock

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DefaultTimezone зона бизнеса по умолчанию
const DefaultTimezone = "Asia/Kolkata"

// BusinessClock reports the current time in the single business timezone
// all schedules and bookings are expressed in.
type BusinessClock struct {
	loc *time.Location
	now func() time.Time
}

// New creates a clock for the given IANA zone name.
func New(timezone string) (*BusinessClock, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("clock: load location %q: %w", timezone, err)
	}
	return &BusinessClock{loc: loc, now: time.Now}, nil
}

// Fixed returns a clock frozen at t, converted into loc. Used in tests.
func Fixed(t time.Time, loc *time.Location) *BusinessClock {
	return &BusinessClock{loc: loc, now: func() time.Time { return t }}
}

// Now returns the current instant in the business timezone.
func (c *BusinessClock) Now() time.Time {
	return c.now().In(c.loc)
}

// Location returns the business timezone.
func (c *BusinessClock) Location() *time.Location {
	return c.loc
}

// Today returns the business calendar date of now as midnight UTC,
// which is how request dates parsed from "YYYY-MM-DD" are represented.
func Today(now time.Time) time.Time {
	return DateOnly(now)
}

// DateOnly keeps the wall-clock calendar date of t and drops the rest.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MinutesOfDay returns minutes since midnight of t's wall clock.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DaysBetween returns whole calendar days from a to b (both truncated to dates).
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}
