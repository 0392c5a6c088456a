package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-06-02 is a Monday
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func newResource() *Resource {
	return &Resource{
		ID:           1,
		ShopID:       10,
		DefaultStart: "09:00",
		DefaultEnd:   "17:00",
		Breaks:       []BreakInterval{{Start: "13:00", End: "14:00", Label: "lunch"}},
		IsActive:     true,
	}
}

func TestResolveSchedule_Defaults(t *testing.T) {
	s, err := ResolveSchedule(newResource(), monday)

	require.NoError(t, err)
	assert.True(t, s.IsOpen)
	assert.Equal(t, SourceDefault, s.Source)
	assert.Equal(t, 540, s.Start)
	assert.Equal(t, 1020, s.End)
	assert.Equal(t, []Interval{{Start: 780, End: 840}}, s.Breaks)
}

func TestResolveSchedule_WeeklyOverrideReplacesDefaults(t *testing.T) {
	r := newResource()
	r.WeeklyOverrides = []WeeklyOverride{
		{Weekday: time.Monday, IsOpen: true, Start: "10:00", End: "12:00"},
		{Weekday: time.Tuesday, IsOpen: false},
	}

	s, err := ResolveSchedule(r, monday)
	require.NoError(t, err)
	assert.Equal(t, SourceWeeklyOverride, s.Source)
	assert.Equal(t, 600, s.Start)
	assert.Equal(t, 720, s.End)
	assert.Empty(t, s.Breaks, "weekly override without breaks must not inherit default breaks")

	s, err = ResolveSchedule(r, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, s.IsOpen)
	assert.Equal(t, SourceWeeklyOverride, s.Source)
}

func TestResolveSchedule_DateOverrideWins(t *testing.T) {
	r := newResource()
	r.WeeklyOverrides = []WeeklyOverride{{Weekday: time.Monday, IsOpen: false}}
	r.DateOverrides = []DateOverride{{Date: "2025-06-02", IsOpen: true, Start: "11:00", End: "15:00"}}

	s, err := ResolveSchedule(r, monday)
	require.NoError(t, err)
	assert.True(t, s.IsOpen)
	assert.Equal(t, SourceDateOverride, s.Source)
	assert.Equal(t, 660, s.Start)
	assert.Equal(t, 900, s.End)
	assert.Empty(t, s.Breaks)

	// the following Monday has no date override and falls back to the weekly tier
	s, err = ResolveSchedule(r, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.False(t, s.IsOpen)
	assert.Equal(t, SourceWeeklyOverride, s.Source)
}

func TestResolveSchedule_ClosedDateOverride(t *testing.T) {
	r := newResource()
	r.DateOverrides = []DateOverride{{Date: "2025-06-02", IsOpen: false}}

	s, err := ResolveSchedule(r, monday)
	require.NoError(t, err)
	assert.False(t, s.IsOpen)
	assert.Equal(t, SourceDateOverride, s.Source)
}

func TestResolveSchedule_InvalidSchedule(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Resource)
	}{
		{
			name: "default start after end",
			mutate: func(r *Resource) {
				r.DefaultStart, r.DefaultEnd = "18:00", "09:00"
			},
		},
		{
			name: "weekly start equals end",
			mutate: func(r *Resource) {
				r.WeeklyOverrides = []WeeklyOverride{{Weekday: time.Monday, IsOpen: true, Start: "10:00", End: "10:00"}}
			},
		},
		{
			name: "date override missing hours",
			mutate: func(r *Resource) {
				r.DateOverrides = []DateOverride{{Date: "2025-06-02", IsOpen: true}}
			},
		},
		{
			name: "inverted break",
			mutate: func(r *Resource) {
				r.Breaks = []BreakInterval{{Start: "14:00", End: "13:00"}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResource()
			tt.mutate(r)

			_, err := ResolveSchedule(r, monday)
			assert.ErrorIs(t, err, ErrInvalidSchedule)
		})
	}
}

func TestResolveAll_SkipsInvalid(t *testing.T) {
	good := newResource()
	bad := newResource()
	bad.ID = 2
	bad.DefaultStart, bad.DefaultEnd = "18:00", "09:00"

	pool, invalid := ResolveAll([]*Resource{good, bad}, monday)

	require.Len(t, pool, 1)
	assert.Equal(t, int64(1), pool[0].ResourceID)
	assert.True(t, pool[0].Schedule.IsOpen)
	require.Contains(t, invalid, int64(2))
	assert.ErrorIs(t, invalid[2], ErrInvalidSchedule)
}
