package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	UserID             int64   `json:"userId"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// UpdateStatusRequest запрос на смену статуса бронирования владельцем салона
type UpdateStatusRequest struct {
	UserID           int64   `json:"userId"`
	Status           string  `json:"status"`
	ConfirmationCode *string `json:"confirmationCode,omitempty"` // обязателен для checked_in
}

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	RequesterID int64   `json:"-"` // кто запрашивает (X-User-ID)
	UserID      int64   `json:"userId"`
	Status      *string `json:"status,omitempty"`
}

// GetShopBookingsRequest запрос на получение бронирований салона
type GetShopBookingsRequest struct {
	UserID          int64      `json:"userId"`
	ShopID          int64      `json:"shopId"`
	ResourceID      *int64     `json:"resourceId,omitempty"`      // Фильтр по мастеру (опционально)
	StartDate       *time.Time `json:"startDate,omitempty"`       // Начало периода (опционально)
	EndDate         *time.Time `json:"endDate,omitempty"`         // Конец периода (опционально)
	Status          *string    `json:"status,omitempty"`          // Фильтр по статусу (опционально)
	IncludeInactive bool       `json:"includeInactive,omitempty"` // Включить отменённые бронирования
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetShopBookingsRequest) ToDomainFilter() (domain.ShopBookingsFilter, error) {
	filter := domain.ShopBookingsFilter{
		ShopID:          r.ShopID,
		ResourceID:      r.ResourceID,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		IncludeInactive: r.IncludeInactive,
	}

	// Конвертируем статус если указан
	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              int64    `json:"id"`
	UserID          *int64   `json:"userId,omitempty"`
	ShopID          int64    `json:"shopId"`
	ResourceID      int64    `json:"resourceId"`
	BookingDate     string   `json:"bookingDate"` // "2025-10-15"
	StartTime       string   `json:"startTime"`   // "10:00"
	EndTime         string   `json:"endTime"`     // "10:30"
	DurationMinutes int      `json:"durationMinutes"`
	Status          string   `json:"status"`
	Type            string   `json:"type"`
	ServiceNames    []string `json:"serviceNames"`
	TotalPrice      float64  `json:"totalPrice"`

	// PIN для отметки о приходе, виден только клиенту
	ConfirmationCode string `json:"confirmationCode,omitempty"`

	// Денормализованные данные клиента
	CustomerName  *string `json:"customerName,omitempty"`
	CustomerPhone *string `json:"customerPhone,omitempty"`
	Notes         *string `json:"notes,omitempty"`

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		UserID:             b.UserID,
		ShopID:             b.ShopID,
		ResourceID:         b.ResourceID,
		BookingDate:        b.BookingDate.Format(domain.DateFormat),
		StartTime:          b.StartTime.String(),
		EndTime:            b.EndTime.String(),
		DurationMinutes:    b.DurationMinutes,
		Status:             string(b.Status),
		Type:               string(b.Type),
		ServiceNames:       b.ServiceNames,
		TotalPrice:         b.TotalPrice,
		ConfirmationCode:   b.ConfirmationCode,
		CustomerName:       b.CustomerName,
		CustomerPhone:      b.CustomerPhone,
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if resp.ServiceNames == nil {
		resp.ServiceNames = []string{}
	}

	// Конвертируем CancelledAt в строку ISO 8601
	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO.
// withCode=false скрывает PIN (список для владельца салона).
func FromDomainBookingList(bookings []*domain.Booking, withCode bool) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			if !withCode {
				bookingResp.ConfirmationCode = ""
			}
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s, ok := domain.ParseBookingStatus(status)
	if !ok {
		return "", ErrInvalidStatus
	}
	return s, nil
}
