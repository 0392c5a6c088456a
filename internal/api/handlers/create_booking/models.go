package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	createBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ShopID          int64                     `json:"shopId"`
	ResourceID      handlers.ResourceSelector `json:"resourceId"`  // "any" или ID мастера
	BookingDate     string                    `json:"bookingDate"` // "2025-10-15"
	StartTime       string                    `json:"startTime"`   // "10:00"
	DurationMinutes int                       `json:"durationMinutes"`
	ServiceNames    []string                  `json:"serviceNames"`
	TotalPrice      float64                   `json:"totalPrice"`
	Type            string                    `json:"type,omitempty"` // online (по умолчанию), walk_in, blocked
	CustomerName    *string                   `json:"customerName,omitempty"`
	CustomerPhone   *string                   `json:"customerPhone,omitempty"`
	Notes           *string                   `json:"notes,omitempty"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID               int64    `json:"id"`
	UserID           *int64   `json:"userId,omitempty"`
	ShopID           int64    `json:"shopId"`
	ResourceID       int64    `json:"resourceId"`
	BookingDate      string   `json:"bookingDate"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
	DurationMinutes  int      `json:"durationMinutes"`
	Status           string   `json:"status"`
	Type             string   `json:"type"`
	ServiceNames     []string `json:"serviceNames"`
	TotalPrice       float64  `json:"totalPrice"`
	ConfirmationCode string   `json:"confirmationCode"`
	CustomerName     *string  `json:"customerName,omitempty"`
	CustomerPhone    *string  `json:"customerPhone,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(callerID int64) (*createBooking.Request, error) {
	// Парсим дату
	bookingDate, err := time.Parse(domain.DateFormat, r.BookingDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidDate, err)
	}

	// Парсим время
	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidTime, err)
	}

	return &createBooking.Request{
		CallerID:        callerID,
		ShopID:          r.ShopID,
		ResourceID:      r.ResourceID.ID,
		Date:            bookingDate,
		StartTime:       startTime,
		DurationMinutes: r.DurationMinutes,
		ServiceNames:    r.ServiceNames,
		TotalPrice:      r.TotalPrice,
		Type:            domain.BookingType(r.Type),
		CustomerName:    r.CustomerName,
		CustomerPhone:   r.CustomerPhone,
		Notes:           r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	serviceNames := resp.ServiceNames
	if serviceNames == nil {
		serviceNames = []string{}
	}

	return &BookingResponse{
		ID:               resp.ID,
		UserID:           resp.UserID,
		ShopID:           resp.ShopID,
		ResourceID:       resp.ResourceID,
		BookingDate:      resp.BookingDate.Format(domain.DateFormat),
		StartTime:        resp.StartTime.String(),
		EndTime:          resp.EndTime.String(),
		DurationMinutes:  resp.DurationMinutes,
		Status:           resp.Status,
		Type:             resp.Type,
		ServiceNames:     serviceNames,
		TotalPrice:       resp.TotalPrice,
		ConfirmationCode: resp.ConfirmationCode,
		CustomerName:     resp.CustomerName,
		CustomerPhone:    resp.CustomerPhone,
		Notes:            resp.Notes,
		CreatedAt:        resp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        resp.UpdatedAt.Format(time.RFC3339),
	}
}
