package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	ShopID          int64             // ID салона
	ResourceID      *int64            // ID мастера, nil - любой активный мастер
	Date            time.Time         // Дата (без времени)
	DurationMinutes int               // Длительность услуги
	Earliest        *types.TimeString // Не раньше этого времени (опционально)
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date            time.Time
	ShopID          int64
	ResourceID      *int64
	DurationMinutes int
	Slots           []types.TimeString // Время начала, по возрастанию
}

// NextSlotRequest модель запроса ближайшего свободного слота
type NextSlotRequest struct {
	ShopID          int64
	ResourceID      *int64
	FromDate        *time.Time // С какой даты искать, nil - с сегодняшней
	DurationMinutes int
	Earliest        *types.TimeString // Только для первой даты
}

// NextSlotResponse ближайший слот; Date и StartTime nil, если в горизонте ничего нет
type NextSlotResponse struct {
	ShopID          int64
	ResourceID      *int64
	DurationMinutes int
	Date            *time.Time
	StartTime       *types.TimeString
}
