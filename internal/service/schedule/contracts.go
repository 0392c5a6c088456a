package schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ShopRepository интерфейс репозитория конфигурации салонов
type ShopRepository interface {
	GetShop(ctx context.Context, shopID int64) (*domain.Shop, error)
	ListResources(ctx context.Context, filter domain.ResourceFilter) ([]*domain.Resource, error)
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
