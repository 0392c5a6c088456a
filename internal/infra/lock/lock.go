package lock

import (
	"context"
	"fmt"
	"time"
)

// Unlock освобождает полученную блокировку. Повторный вызов безопасен.
type Unlock func()

// Locker сериализует коммиты бронирований одного мастера на одну дату
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// ResourceDayKey ключ блокировки для пары (мастер, дата)
func ResourceDayKey(resourceID int64, date time.Time) string {
	return fmt.Sprintf("booking:resource:%d:%s", resourceID, date.Format("2006-01-02"))
}
