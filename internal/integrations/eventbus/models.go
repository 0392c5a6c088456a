package eventbus

import (
	"strconv"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Типы событий бронирования
const (
	EventBookingCreated       = "booking.created"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingStatusChanged = "booking.status_changed"
)

// BookingEvent событие для сервисов уведомлений и взаиморасчетов
type BookingEvent struct {
	EventType        string    `json:"eventType"`
	OccurredAt       time.Time `json:"occurredAt"`
	BookingID        int64     `json:"bookingId"`
	ShopID           int64     `json:"shopId"`
	ResourceID       int64     `json:"resourceId"`
	UserID           *int64    `json:"userId,omitempty"`
	BookingDate      string    `json:"bookingDate"`
	StartTime        string    `json:"startTime"`
	EndTime          string    `json:"endTime"`
	Status           string    `json:"status"`
	PreviousStatus   string    `json:"previousStatus,omitempty"`
	Type             string    `json:"type"`
	TotalPrice       float64   `json:"totalPrice"`
	ServiceNames     []string  `json:"serviceNames"`
	CancellationNote *string   `json:"cancellationReason,omitempty"`
}

// NewBookingEvent собирает событие из бронирования
func NewBookingEvent(eventType string, b *domain.Booking, occurredAt time.Time) BookingEvent {
	return BookingEvent{
		EventType:        eventType,
		OccurredAt:       occurredAt,
		BookingID:        b.ID,
		ShopID:           b.ShopID,
		ResourceID:       b.ResourceID,
		UserID:           b.UserID,
		BookingDate:      b.BookingDate.Format(domain.DateFormat),
		StartTime:        b.StartTime.String(),
		EndTime:          b.EndTime.String(),
		Status:           string(b.Status),
		Type:             string(b.Type),
		TotalPrice:       b.TotalPrice,
		ServiceNames:     b.ServiceNames,
		CancellationNote: b.CancellationReason,
	}
}

// key события одного салона попадают в одну партицию
func (e BookingEvent) key() []byte {
	return []byte(strconv.FormatInt(e.ShopID, 10))
}
