package get_available_slots

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	Date            string   `json:"date"`
	ShopID          int64    `json:"shopId"`
	ResourceID      string   `json:"resourceId"` // "any" или ID мастера
	DurationMinutes int      `json:"durationMinutes"`
	Slots           []string `json:"slots"` // "HH:MM", по возрастанию
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]string, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = slot.String()
	}

	return &AvailableSlotsResponse{
		Date:            resp.Date.Format(domain.DateFormat),
		ShopID:          resp.ShopID,
		ResourceID:      ResourceLabel(resp.ResourceID),
		DurationMinutes: resp.DurationMinutes,
		Slots:           slots,
	}
}

// ResourceLabel "any" для nil, иначе ID строкой
func ResourceLabel(resourceID *int64) string {
	if resourceID == nil {
		return domain.ResourceSelectorAny
	}
	return strconv.FormatInt(*resourceID, 10)
}

// ToUseCaseRequest создает запрос use case из query параметров
func ToUseCaseRequest(shopID int64, query url.Values) (*getAvailableSlots.Request, error) {
	resourceID, err := handlers.ParseResourceSelector(query.Get("resourceId"))
	if err != nil {
		return nil, err
	}

	date, err := time.Parse(domain.DateFormat, query.Get("date"))
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}

	duration, err := ParseDuration(query.Get("duration"))
	if err != nil {
		return nil, err
	}

	earliest, err := ParseEarliest(query.Get("earliest"))
	if err != nil {
		return nil, err
	}

	return &getAvailableSlots.Request{
		ShopID:          shopID,
		ResourceID:      resourceID,
		Date:            date,
		DurationMinutes: duration,
		Earliest:        earliest,
	}, nil
}

// ParseDuration длительность услуги в минутах, обязательна
func ParseDuration(raw string) (int, error) {
	duration, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("duration: %w", err)
	}
	return duration, nil
}

// ParseEarliest опциональное "не раньше HH:MM"
func ParseEarliest(raw string) (*types.TimeString, error) {
	if raw == "" {
		return nil, nil
	}
	earliest, err := types.NewTimeStringFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("earliest: %w", err)
	}
	return &earliest, nil
}
