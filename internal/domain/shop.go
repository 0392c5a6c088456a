package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Shop booking policy of a service location.
// The engine reads it; the shop-management service owns it.
type Shop struct {
	ID               int64
	OwnerID          int64
	Name             string
	BufferMinutes    int  // gap required after each booking
	MinNoticeMinutes int  // for today, earliest bookable start is now + this
	MaxNoticeDays    int  // 0 = DefaultMaxNoticeDays
	AutoApprove      bool // false: new online bookings start as pending
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NoticeDays how many days ahead bookings are accepted
func (s *Shop) NoticeDays() int {
	return EffectiveMaxNoticeDays(s.MaxNoticeDays)
}

// IsOwnedBy returns true if the user manages the shop
func (s *Shop) IsOwnedBy(userID int64) bool {
	return s.OwnerID == userID
}

// InitialStatus status of a freshly committed booking of the given type
func (s *Shop) InitialStatus(t BookingType) BookingStatus {
	switch t {
	case TypeBlocked:
		return StatusBlocked
	case TypeWalkIn:
		return StatusUpcoming
	}
	if !s.AutoApprove {
		return StatusPending
	}
	return StatusUpcoming
}

// BreakInterval a non-bookable interval within a working day
type BreakInterval struct {
	Start types.TimeString `json:"start"`
	End   types.TimeString `json:"end"`
	Label string           `json:"label,omitempty"`
}

// WeeklyOverride replaces the defaults on one weekday
type WeeklyOverride struct {
	Weekday time.Weekday
	IsOpen  bool
	Start   types.TimeString
	End     types.TimeString
	Breaks  []BreakInterval
}

// DateOverride replaces everything on one calendar date. It carries no breaks.
type DateOverride struct {
	Date   string // YYYY-MM-DD
	IsOpen bool
	Start  types.TimeString
	End    types.TimeString
	Reason *string
}

// Resource a bookable staff member (barber)
type Resource struct {
	ID              int64
	ShopID          int64
	Name            string
	DefaultStart    types.TimeString
	DefaultEnd      types.TimeString
	Breaks          []BreakInterval
	WeeklyOverrides []WeeklyOverride
	DateOverrides   []DateOverride
	IsActive        bool // liveness: inactive resources get no new bookings but keep existing ones
}

// ResourceFilter выборка мастеров салона вместе с их переопределениями расписания
type ResourceFilter struct {
	ShopID     int64
	ResourceID *int64 // конкретный мастер (опционально)
	ActiveOnly bool   // только isActive = true

	// Диапазон дат, для которого загружаются date overrides (включительно).
	// nil - загружаются все.
	OverridesFrom *time.Time
	OverridesTo   *time.Time
}
