package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	CallerID        int64              // ID пользователя из X-User-ID
	ShopID          int64              // ID салона
	ResourceID      *int64             // ID мастера, nil - любой свободный мастер
	Date            time.Time          // Дата бронирования (без времени)
	StartTime       types.TimeString   // Время начала
	DurationMinutes int                // Суммарная длительность услуг
	ServiceNames    []string           // Названия услуг для карточки бронирования
	TotalPrice      float64            // Итоговая цена
	Type            domain.BookingType // online по умолчанию
	CustomerName    *string            // Для walk-in: клиент у стойки
	CustomerPhone   *string
	Notes           *string
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID               int64
	UserID           *int64
	ShopID           int64
	ResourceID       int64 // назначенный мастер
	BookingDate      time.Time
	StartTime        types.TimeString
	EndTime          types.TimeString
	DurationMinutes  int
	Status           string
	Type             string
	ServiceNames     []string
	TotalPrice       float64
	ConfirmationCode string
	CustomerName     *string
	CustomerPhone    *string
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
