package get_shop_schedule

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
)

type ScheduleService interface {
	GetShopSchedule(ctx context.Context, shopID int64, date *time.Time) (*models.ShopScheduleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
