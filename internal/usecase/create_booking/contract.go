package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/lock"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/eventbus"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/userservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetByShopWithFilter(ctx context.Context, filter domain.ShopBookingsFilter) ([]*domain.Booking, error)
	GetActiveByResourceAndDate(ctx context.Context, resourceID int64, date time.Time) ([]*domain.Booking, error)
}

// ShopRepository интерфейс репозитория салонов и мастеров
type ShopRepository interface {
	GetShop(ctx context.Context, shopID int64) (*domain.Shop, error)
	GetResource(ctx context.Context, shopID, resourceID int64, date time.Time) (*domain.Resource, error)
	ListResources(ctx context.Context, filter domain.ResourceFilter) ([]*domain.Resource, error)
}

// UserServiceClient интерфейс клиента для UserService
type UserServiceClient interface {
	GetUserWithGracefulDegradation(ctx context.Context, userID int64) (*userservice.User, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker блокировка пары (мастер, дата) на время проверки и вставки
type Locker interface {
	Lock(ctx context.Context, key string) (lock.Unlock, error)
}

// EventPublisher публикует события бронирований
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.BookingEvent) error
}

// Metrics интерфейс метрик создания бронирований
type Metrics interface {
	IncBookingCreated(status, assignment string)
	IncSlotConflict(stage string)
}

// TimeProvider интерфейс для получения текущего времени в часовом поясе бизнеса (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
