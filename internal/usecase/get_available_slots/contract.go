package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	// GetByShopWithFilter получает бронирования салона по фильтру
	GetByShopWithFilter(ctx context.Context, filter domain.ShopBookingsFilter) ([]*domain.Booking, error)
}

// ShopRepository интерфейс репозитория салонов и мастеров
type ShopRepository interface {
	GetShop(ctx context.Context, shopID int64) (*domain.Shop, error)
	ListResources(ctx context.Context, filter domain.ResourceFilter) ([]*domain.Resource, error)
}

// TimeProvider интерфейс для получения текущего времени в часовом поясе бизнеса (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Metrics интерфейс метрик поиска слотов
type Metrics interface {
	IncSlotSearch(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
