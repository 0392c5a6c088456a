package domain

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusUpcoming  BookingStatus = "upcoming"
	StatusCheckedIn BookingStatus = "checked_in"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
	StatusBlocked   BookingStatus = "blocked"
)

// BookingType how the booking was made
type BookingType string

const (
	// TypeOnline booked by a customer through the app
	TypeOnline BookingType = "online"
	// TypeWalkIn entered by the shop for a customer at the counter
	TypeWalkIn BookingType = "walk_in"
	// TypeBlocked time the shop blocks out on a resource's calendar
	TypeBlocked BookingType = "blocked"
)

// Booking represents an appointment of one customer with one resource
type Booking struct {
	ID              int64
	UserID          *int64 // nil for blocked time and anonymous walk-ins
	ShopID          int64
	ResourceID      int64
	BookingDate     time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString // StartTime + DurationMinutes
	DurationMinutes int
	BufferMinutes   int // shop buffer at the time of commit
	Status          BookingStatus
	Type            BookingType

	ServiceNames     []string
	TotalPrice       float64
	ConfirmationCode string

	// Denormalized customer data for the shop's day view
	CustomerName  *string
	CustomerPhone *string
	Notes         *string

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking still occupies the resource's time
func (b *Booking) IsActive() bool {
	return b.Status != StatusCancelled
}

// StartMinute minutes since midnight of the start
func (b *Booking) StartMinute() int {
	return b.StartTime.Minutes()
}

// EndMinute minutes since midnight of the end (exclusive)
func (b *Booking) EndMinute() int {
	if !b.EndTime.IsZero() {
		return b.EndTime.Minutes()
	}
	return b.StartTime.Minutes() + b.DurationMinutes
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusUpcoming || b.Status == StatusBlocked
}

// IsFinal returns true if no further status changes are possible
func (b *Booking) IsFinal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled || b.Status == StatusNoShow
}

// IsOwnedBy returns true if the booking belongs to the user
func (b *Booking) IsOwnedBy(userID int64) bool {
	return b.UserID != nil && *b.UserID == userID
}

// statusTransitions allowed status changes made by the shop
var statusTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusUpcoming, StatusCancelled},
	StatusUpcoming:  {StatusCheckedIn, StatusCompleted, StatusNoShow, StatusCancelled},
	StatusCheckedIn: {StatusCompleted, StatusNoShow},
	StatusBlocked:   {StatusCancelled},
}

// CanTransitionTo reports whether the status may change from the current one to next
func (b *Booking) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range statusTransitions[b.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseBookingStatus validates a status string
func ParseBookingStatus(s string) (BookingStatus, bool) {
	status := BookingStatus(s)
	switch status {
	case StatusPending, StatusUpcoming, StatusCheckedIn, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusBlocked:
		return status, true
	default:
		return "", false
	}
}

// ParseBookingType validates a booking type string; empty means online
func ParseBookingType(s string) (BookingType, bool) {
	if s == "" {
		return TypeOnline, true
	}
	t := BookingType(s)
	switch t {
	case TypeOnline, TypeWalkIn, TypeBlocked:
		return t, true
	default:
		return "", false
	}
}

// SkipsNoticeWindow walk-ins and blocked time are entered by the shop and may start now or in the past
func (t BookingType) SkipsNoticeWindow() bool {
	return t == TypeWalkIn || t == TypeBlocked
}

// ShopBookingsFilter фильтр для получения бронирований салона
type ShopBookingsFilter struct {
	ShopID          int64          // Обязательный параметр
	ResourceID      *int64         // Фильтр по мастеру (опционально)
	StartDate       *time.Time     // Начало периода (опционально)
	EndDate         *time.Time     // Конец периода (опционально)
	Status          *BookingStatus // Фильтр по статусу (опционально)
	IncludeInactive bool           // Включать ли отмененные бронирования
}

// IsSingleDate true если фильтр охватывает ровно одну дату
func (f ShopBookingsFilter) IsSingleDate() bool {
	return f.StartDate != nil && f.EndDate != nil && f.StartDate.Equal(*f.EndDate)
}
