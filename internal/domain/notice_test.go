package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckDateWindow(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, ist)
	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, CheckDateWindow(today, now, 30))
	assert.NoError(t, CheckDateWindow(today.AddDate(0, 0, 30), now, 30))
	assert.ErrorIs(t, CheckDateWindow(today.AddDate(0, 0, 31), now, 30), ErrPastOrTooFarAhead)
	assert.ErrorIs(t, CheckDateWindow(today.AddDate(0, 0, -1), now, 30), ErrPastOrTooFarAhead)

	// 0 means the default window, not an unlimited one
	assert.NoError(t, CheckDateWindow(today.AddDate(0, 0, DefaultMaxNoticeDays), now, 0))
	assert.ErrorIs(t, CheckDateWindow(today.AddDate(0, 0, DefaultMaxNoticeDays+1), now, 0), ErrPastOrTooFarAhead)
	assert.ErrorIs(t, CheckDateWindow(today.AddDate(1, 0, 0), now, 0), ErrPastOrTooFarAhead)
}

func TestCheckStartWindow(t *testing.T) {
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, CheckStartWindow(today, now, 630, 60), ErrPastOrTooFarAhead, "10:30 is within the 60 minute notice")
	assert.NoError(t, CheckStartWindow(today, now, 660, 60))
	assert.NoError(t, CheckStartWindow(today.AddDate(0, 0, 1), now, 540, 60), "notice applies only to today")
}

func TestEarliestStartToday(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 20, 0, 0, time.UTC)
	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 560, EarliestStartToday(today, now, 60))
	assert.Equal(t, 0, EarliestStartToday(today.AddDate(0, 0, 1), now, 60))
}
