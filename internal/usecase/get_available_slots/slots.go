package get_available_slots

import (
	"iter"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// SearchQuery параметры поиска слотов на одну дату
type SearchQuery struct {
	Date          time.Time // календарная дата, полночь UTC
	Now           time.Time // текущее время в часовом поясе бизнеса
	Duration      int
	Earliest      int // минуты от полуночи, 0 - без ограничения
	Buffer        int
	MinNotice     int
	MaxNoticeDays int
}

// SearchSlots перечисляет по возрастанию времена начала, на которые свободен хотя бы один мастер.
//
// Окно поиска - от самого раннего начала до самого позднего конца среди открытых мастеров.
// Шаг 15 минут от начала окна; нижняя граница (earliest, now + minNotice для сегодняшней даты)
// округляется вверх до шага. Последовательность конечна и может проходиться повторно.
func SearchSlots(pool []domain.ResourceSchedule, bookings []*domain.Booking, q SearchQuery) iter.Seq[int] {
	return func(yield func(int) bool) {
		if q.Duration <= 0 {
			return
		}

		// Дата в прошлом или дальше maxNoticeDays - слотов нет
		if domain.CheckDateWindow(q.Date, q.Now, q.MaxNoticeDays) != nil {
			return
		}

		minStart, maxEnd, ok := searchWindow(pool)
		if !ok {
			return
		}

		lower := max(q.Earliest, domain.EarliestStartToday(q.Date, q.Now, q.MinNotice))
		cursor := alignUp(max(minStart, lower), minStart)

		for ; cursor+q.Duration <= maxEnd; cursor += domain.SlotStepMinutes {
			if !domain.AnyFree(pool, bookings, cursor, q.Duration, q.Buffer) {
				continue
			}
			if !yield(cursor) {
				return
			}
		}
	}
}

// searchWindow объединяет рабочие окна открытых мастеров
func searchWindow(pool []domain.ResourceSchedule) (minStart, maxEnd int, ok bool) {
	for _, rs := range pool {
		if !rs.Schedule.IsOpen {
			continue
		}
		if !ok || rs.Schedule.Start < minStart {
			minStart = rs.Schedule.Start
		}
		if !ok || rs.Schedule.End > maxEnd {
			maxEnd = rs.Schedule.End
		}
		ok = true
	}
	return minStart, maxEnd, ok
}

// alignUp округляет minute вверх до сетки с шагом SlotStepMinutes от anchor
func alignUp(minute, anchor int) int {
	if minute <= anchor {
		return anchor
	}
	offset := (minute - anchor) % domain.SlotStepMinutes
	if offset == 0 {
		return minute
	}
	return minute + domain.SlotStepMinutes - offset
}
