package get_available_slots

import (
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	return validateCommon(req.ShopID, req.ResourceID, req.DurationMinutes, req.Earliest)
}

// validateNextSlotRequest валидирует запрос ближайшего слота
func validateNextSlotRequest(req *NextSlotRequest) error {
	return validateCommon(req.ShopID, req.ResourceID, req.DurationMinutes, req.Earliest)
}

func validateCommon(shopID int64, resourceID *int64, duration int, earliest *types.TimeString) error {
	if shopID <= 0 {
		return fmt.Errorf("%w: shopID must be positive", ErrInvalidInput)
	}

	if resourceID != nil && *resourceID <= 0 {
		return fmt.Errorf("%w: resourceID must be positive", ErrInvalidInput)
	}

	if duration < domain.MinServiceDurationMinutes || duration > domain.MaxServiceDurationMinutes {
		return fmt.Errorf("%w: duration must be between %d and %d minutes",
			ErrInvalidInput, domain.MinServiceDurationMinutes, domain.MaxServiceDurationMinutes)
	}

	if earliest != nil {
		if err := earliest.Validate(); err != nil {
			return fmt.Errorf("%w: earliest: %v", ErrInvalidInput, err)
		}
	}

	return nil
}
