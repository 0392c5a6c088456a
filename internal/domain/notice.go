package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/clock"
)

// DefaultMaxNoticeDays horizon used when a shop stores maxNoticeDays = 0
const DefaultMaxNoticeDays = 30

var (
	// ErrPastOrTooFarAhead the requested date or time violates the shop's notice window
	ErrPastOrTooFarAhead = errors.New("domain: outside of booking notice window")
)

// EffectiveMaxNoticeDays replaces a non-positive maxNoticeDays with DefaultMaxNoticeDays
func EffectiveMaxNoticeDays(maxNoticeDays int) int {
	if maxNoticeDays <= 0 {
		return DefaultMaxNoticeDays
	}
	return maxNoticeDays
}

// CheckDateWindow rejects dates before today and dates more than maxNoticeDays ahead.
// now must already be in the business timezone; date is a calendar date.
func CheckDateWindow(date, now time.Time, maxNoticeDays int) error {
	days := clock.DaysBetween(now, date)
	if days < 0 {
		return fmt.Errorf("%w: date %s is in the past", ErrPastOrTooFarAhead, date.Format(DateFormat))
	}
	maxNoticeDays = EffectiveMaxNoticeDays(maxNoticeDays)
	if days > maxNoticeDays {
		return fmt.Errorf("%w: date %s is more than %d days ahead", ErrPastOrTooFarAhead, date.Format(DateFormat), maxNoticeDays)
	}
	return nil
}

// EarliestStartToday returns the first bookable minute for date, or 0 when date is not today.
func EarliestStartToday(date, now time.Time, minNoticeMinutes int) int {
	if clock.DaysBetween(now, date) != 0 {
		return 0
	}
	return clock.MinutesOfDay(now) + minNoticeMinutes
}

// CheckStartWindow rejects a start time on today's date earlier than now + minNoticeMinutes
func CheckStartWindow(date, now time.Time, startMinute, minNoticeMinutes int) error {
	earliest := EarliestStartToday(date, now, minNoticeMinutes)
	if startMinute < earliest {
		return fmt.Errorf("%w: must book at least %d minutes in advance", ErrPastOrTooFarAhead, minNoticeMinutes)
	}
	return nil
}
