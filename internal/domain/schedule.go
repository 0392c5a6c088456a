package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// ErrInvalidSchedule a resource's configuration yields an open day with start >= end
// or a malformed break. It is a configuration error, not a scheduling outcome.
var ErrInvalidSchedule = errors.New("domain: invalid schedule configuration")

// ScheduleSource which tier of the override hierarchy produced the schedule
type ScheduleSource string

const (
	SourceDateOverride   ScheduleSource = "date_override"
	SourceWeeklyOverride ScheduleSource = "weekly_override"
	SourceDefault        ScheduleSource = "default"
)

// Interval half-open interval [Start, End) in minutes since midnight
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether two half-open intervals share any minute
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && i.End > o.Start
}

// EffectiveSchedule a resource's working window on one date.
// When IsOpen is false the other fields are meaningless.
type EffectiveSchedule struct {
	IsOpen bool
	Start  int
	End    int
	Breaks []Interval
	Source ScheduleSource
}

// Closed schedule for a day off
func Closed(source ScheduleSource) EffectiveSchedule {
	return EffectiveSchedule{Source: source}
}

// Contains reports whether [start, start+duration) fits the working window
func (s EffectiveSchedule) Contains(start, duration int) bool {
	return s.IsOpen && start >= s.Start && start+duration <= s.End
}

// ResolveSchedule picks the working window of a resource for a date.
// An exact date override wins over the weekday override, which wins over the defaults.
// The winning tier supplies the whole schedule; fields are never merged across tiers.
func ResolveSchedule(r *Resource, date time.Time) (EffectiveSchedule, error) {
	key := date.Format(DateFormat)

	for _, o := range r.DateOverrides {
		if o.Date != key {
			continue
		}
		if !o.IsOpen {
			return Closed(SourceDateOverride), nil
		}
		return openSchedule(SourceDateOverride, o.Start, o.End, nil)
	}

	weekday := date.Weekday()
	for _, o := range r.WeeklyOverrides {
		if o.Weekday != weekday {
			continue
		}
		if !o.IsOpen {
			return Closed(SourceWeeklyOverride), nil
		}
		return openSchedule(SourceWeeklyOverride, o.Start, o.End, o.Breaks)
	}

	return openSchedule(SourceDefault, r.DefaultStart, r.DefaultEnd, r.Breaks)
}

func openSchedule(source ScheduleSource, start, end types.TimeString, breaks []BreakInterval) (EffectiveSchedule, error) {
	if start.Validate() != nil || end.Validate() != nil || !start.IsBefore(end) {
		return EffectiveSchedule{}, fmt.Errorf("%w: %s window %q-%q", ErrInvalidSchedule, source, start, end)
	}

	intervals := make([]Interval, 0, len(breaks))
	for _, b := range breaks {
		if b.Start.Validate() != nil || b.End.Validate() != nil || !b.Start.IsBefore(b.End) {
			return EffectiveSchedule{}, fmt.Errorf("%w: %s break %q-%q", ErrInvalidSchedule, source, b.Start, b.End)
		}
		intervals = append(intervals, Interval{Start: b.Start.Minutes(), End: b.End.Minutes()})
	}

	return EffectiveSchedule{
		IsOpen: true,
		Start:  start.Minutes(),
		End:    end.Minutes(),
		Breaks: intervals,
		Source: source,
	}, nil
}

// ResourceSchedule a resource together with its resolved schedule for one date
type ResourceSchedule struct {
	ResourceID int64
	Schedule   EffectiveSchedule
}

// ResolveAll resolves every resource for date. Resources whose configuration is invalid
// are left out of the pool and reported in the second result keyed by resource ID.
func ResolveAll(resources []*Resource, date time.Time) ([]ResourceSchedule, map[int64]error) {
	pool := make([]ResourceSchedule, 0, len(resources))
	var invalid map[int64]error

	for _, r := range resources {
		schedule, err := ResolveSchedule(r, date)
		if err != nil {
			if invalid == nil {
				invalid = make(map[int64]error)
			}
			invalid[r.ID] = err
			continue
		}
		pool = append(pool, ResourceSchedule{ResourceID: r.ID, Schedule: schedule})
	}

	return pool, invalid
}
