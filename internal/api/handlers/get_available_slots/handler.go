package get_available_slots

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
)

const (
	msgInvalidShopID    = "некорректный ID салона"
	msgInvalidParams    = "некорректные параметры: ожидаются resourceId=any|<id>, date=YYYY-MM-DD, duration=<минуты>, earliest=HH:MM"
	msgInvalidInput     = "некорректные параметры поиска"
	msgShopNotFound     = "салон не найден"
	msgResourceNotFound = "мастер не найден в салоне"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/shops/{shopId}/slots
// Query params: resourceId (any|<id>, по умолчанию any), date (YYYY-MM-DD), duration (минуты), earliest (HH:MM, опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Извлекаем shopId из URL
	shopID, err := strconv.ParseInt(mux.Vars(r)["shopId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /shops/{id}/slots - Invalid shop ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidShopID)
		return
	}

	// Формируем запрос к use case
	useCaseReq, err := ToUseCaseRequest(shopID, r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /shops/{id}/slots - Invalid parameters: shop_id=%d, error=%v", shopID, err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /shops/{id}/slots - Invalid input: shop_id=%d, error=%v", shopID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, getAvailableSlots.ErrShopNotFound):
			h.logger.Warn("GET /shops/{id}/slots - Shop not found: shop_id=%d", shopID)
			handlers.RespondNotFound(w, msgShopNotFound)

		case errors.Is(err, getAvailableSlots.ErrResourceNotFound):
			h.logger.Warn("GET /shops/{id}/slots - Resource not found: shop_id=%d, resource=%s",
				shopID, ResourceLabel(useCaseReq.ResourceID))
			handlers.RespondNotFound(w, msgResourceNotFound)

		default:
			h.logger.Error("GET /shops/{id}/slots - Failed to get slots: shop_id=%d, error=%v", shopID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /shops/{id}/slots - Slots retrieved successfully: shop_id=%d, resource=%s, date=%s, slots_count=%d",
		shopID, ResourceLabel(result.ResourceID), result.Date.Format(domain.DateFormat), len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
