package get_next_slot

import (
	"fmt"
	"net/url"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	slotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_available_slots"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
)

// NextSlotResponse HTTP response model. date и startTime null, если свободных слотов нет.
type NextSlotResponse struct {
	ShopID          int64   `json:"shopId"`
	ResourceID      string  `json:"resourceId"`
	DurationMinutes int     `json:"durationMinutes"`
	Date            *string `json:"date"`
	StartTime       *string `json:"startTime"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.NextSlotResponse) *NextSlotResponse {
	out := &NextSlotResponse{
		ShopID:          resp.ShopID,
		ResourceID:      slotsHandler.ResourceLabel(resp.ResourceID),
		DurationMinutes: resp.DurationMinutes,
	}
	if resp.Date != nil && resp.StartTime != nil {
		date := resp.Date.Format(domain.DateFormat)
		start := resp.StartTime.String()
		out.Date = &date
		out.StartTime = &start
	}
	return out
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(shopID int64, query url.Values) (*getAvailableSlots.NextSlotRequest, error) {
	resourceID, err := handlers.ParseResourceSelector(query.Get("resourceId"))
	if err != nil {
		return nil, err
	}

	var from *time.Time
	if raw := query.Get("from"); raw != "" {
		date, err := time.Parse(domain.DateFormat, raw)
		if err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
		from = &date
	}

	duration, err := slotsHandler.ParseDuration(query.Get("duration"))
	if err != nil {
		return nil, err
	}

	earliest, err := slotsHandler.ParseEarliest(query.Get("earliest"))
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.NextSlotRequest{
		ShopID:          shopID,
		ResourceID:      resourceID,
		FromDate:        from,
		DurationMinutes: duration,
		Earliest:        earliest,
	}, nil
}
