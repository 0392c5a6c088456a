package get_next_slot

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
)

const (
	msgInvalidShopID    = "некорректный ID салона"
	msgInvalidParams    = "некорректные параметры: ожидаются resourceId=any|<id>, from=YYYY-MM-DD, duration=<минуты>, earliest=HH:MM"
	msgInvalidInput     = "некорректные параметры поиска"
	msgShopNotFound     = "салон не найден"
	msgResourceNotFound = "мастер не найден в салоне"
)

type Handler struct {
	useCase NextSlotUseCase
	logger  Logger
}

func NewHandler(useCase NextSlotUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/shops/{shopId}/next-slot
// Query params: resourceId (any|<id>), duration (минуты), from (YYYY-MM-DD, опционально), earliest (HH:MM, опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	shopID, err := strconv.ParseInt(mux.Vars(r)["shopId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /shops/{id}/next-slot - Invalid shop ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidShopID)
		return
	}

	useCaseReq, err := ToUseCaseRequest(shopID, r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /shops/{id}/next-slot - Invalid parameters: shop_id=%d, error=%v", shopID, err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.useCase.NextAvailable(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /shops/{id}/next-slot - Invalid input: shop_id=%d, error=%v", shopID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, getAvailableSlots.ErrShopNotFound):
			h.logger.Warn("GET /shops/{id}/next-slot - Shop not found: shop_id=%d", shopID)
			handlers.RespondNotFound(w, msgShopNotFound)

		case errors.Is(err, getAvailableSlots.ErrResourceNotFound):
			h.logger.Warn("GET /shops/{id}/next-slot - Resource not found: shop_id=%d", shopID)
			handlers.RespondNotFound(w, msgResourceNotFound)

		default:
			h.logger.Error("GET /shops/{id}/next-slot - Failed to find next slot: shop_id=%d, error=%v", shopID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromUseCaseResponse(result)

	h.logger.Info("GET /shops/{id}/next-slot - shop_id=%d, found=%t", shopID, response.StartTime != nil)
	handlers.RespondJSON(w, http.StatusOK, response)
}
