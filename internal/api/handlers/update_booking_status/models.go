package update_booking_status

import (
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// UpdateStatusRequest HTTP request model
type UpdateStatusRequest struct {
	Status           string  `json:"status"`
	ConfirmationCode *string `json:"confirmationCode,omitempty"` // PIN клиента для checked_in
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UpdateStatusRequest) ToServiceRequest(userID int64) *models.UpdateStatusRequest {
	return &models.UpdateStatusRequest{
		UserID:           userID,
		Status:           r.Status,
		ConfirmationCode: r.ConfirmationCode,
	}
}
