package models

import (
	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// ShopScheduleResponse политика салона и рабочие окна всех мастеров на дату
type ShopScheduleResponse struct {
	ShopID           int64              `json:"shopId"`
	Date             string             `json:"date"`
	BufferMinutes    int                `json:"bufferMinutes"`
	MinNoticeMinutes int                `json:"minNoticeMinutes"`
	MaxNoticeDays    int                `json:"maxNoticeDays"`
	AutoApprove      bool               `json:"autoApprove"`
	Resources        []ResourceSchedule `json:"resources"`
}

// ResourceSchedule расписание одного мастера
type ResourceSchedule struct {
	ResourceID int64   `json:"resourceId"`
	Name       string  `json:"name"`
	IsActive   bool    `json:"isActive"`
	IsOpen     bool    `json:"isOpen"`
	Source     string  `json:"source,omitempty"`
	StartTime  *string `json:"startTime,omitempty"`
	EndTime    *string `json:"endTime,omitempty"`
	Breaks     []Break `json:"breaks,omitempty"`
	Reason     *string `json:"reason,omitempty"` // причина из переопределения на дату
	Error      *string `json:"error,omitempty"`  // ошибка конфигурации
}

// Break перерыв мастера
type Break struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FromEffectiveSchedule конвертирует рассчитанное расписание в DTO
func FromEffectiveSchedule(r *domain.Resource, s domain.EffectiveSchedule) ResourceSchedule {
	out := ResourceSchedule{
		ResourceID: r.ID,
		Name:       r.Name,
		IsActive:   r.IsActive,
		IsOpen:     s.IsOpen,
		Source:     string(s.Source),
	}
	if !s.IsOpen {
		return out
	}

	start := minutesString(s.Start)
	end := minutesString(s.End)
	out.StartTime = &start
	out.EndTime = &end

	for _, b := range s.Breaks {
		out.Breaks = append(out.Breaks, Break{Start: minutesString(b.Start), End: minutesString(b.End)})
	}
	return out
}

func minutesString(m int) string {
	ts, err := types.NewTimeStringFromMinutes(m)
	if err != nil {
		return ""
	}
	return ts.String()
}
