package get_next_slot

import (
	"context"

	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
)

type NextSlotUseCase interface {
	NextAvailable(ctx context.Context, req *getAvailableSlots.NextSlotRequest) (*getAvailableSlots.NextSlotResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
