package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/shop"
	"github.com/m04kA/SMC-SchedulingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/clock"
)

// Service сервис просмотра расписания салона. Только чтение.
type Service struct {
	shopRepo     ShopRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписания
func NewService(shopRepo ShopRepository, timeProvider TimeProvider, logger Logger) *Service {
	return &Service{
		shopRepo:     shopRepo,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// GetShopSchedule возвращает политику салона и рабочее окно каждого мастера на дату.
// Если date == nil, используется сегодняшний день в часовом поясе салона.
// Ошибка конфигурации мастера не прерывает ответ, а попадает в его поле error.
func (s *Service) GetShopSchedule(ctx context.Context, shopID int64, date *time.Time) (*models.ShopScheduleResponse, error) {
	day := clock.Today(s.timeProvider.Now())
	if date != nil {
		day = *date
	}

	s.logger.Info("GetShopSchedule: shop=%d, date=%s", shopID, day.Format(domain.DateFormat))

	// 1. Политика салона
	sh, err := s.shopRepo.GetShop(ctx, shopID)
	if err != nil {
		if errors.Is(err, shop.ErrShopNotFound) {
			s.logger.Warn("GetShopSchedule: shop id=%d not found", shopID)
			return nil, ErrShopNotFound
		}
		s.logger.Error("GetShopSchedule: failed to get shop id=%d: %v", shopID, err)
		return nil, fmt.Errorf("%w: GetShopSchedule - failed to get shop: %w", ErrInternal, err)
	}

	// 2. Все мастера с переопределениями на эту дату
	resources, err := s.shopRepo.ListResources(ctx, domain.ResourceFilter{
		ShopID:        shopID,
		OverridesFrom: &day,
		OverridesTo:   &day,
	})
	if err != nil {
		s.logger.Error("GetShopSchedule: failed to list resources for shop=%d: %v", shopID, err)
		return nil, fmt.Errorf("%w: GetShopSchedule - failed to list resources: %w", ErrInternal, err)
	}

	// 3. Разрешаем расписание каждого мастера
	resp := &models.ShopScheduleResponse{
		ShopID:           sh.ID,
		Date:             day.Format(domain.DateFormat),
		BufferMinutes:    sh.BufferMinutes,
		MinNoticeMinutes: sh.MinNoticeMinutes,
		MaxNoticeDays:    sh.NoticeDays(),
		AutoApprove:      sh.AutoApprove,
		Resources:        make([]models.ResourceSchedule, 0, len(resources)),
	}

	for _, r := range resources {
		effective, err := domain.ResolveSchedule(r, day)
		if err != nil {
			s.logger.Warn("GetShopSchedule: resource id=%d has invalid schedule: %v", r.ID, err)
			msg := err.Error()
			resp.Resources = append(resp.Resources, models.ResourceSchedule{
				ResourceID: r.ID,
				Name:       r.Name,
				IsActive:   r.IsActive,
				Error:      &msg,
			})
			continue
		}

		item := models.FromEffectiveSchedule(r, effective)
		if effective.Source == domain.SourceDateOverride {
			item.Reason = overrideReason(r, day)
		}
		resp.Resources = append(resp.Resources, item)
	}

	return resp, nil
}

func overrideReason(r *domain.Resource, day time.Time) *string {
	key := day.Format(domain.DateFormat)
	for _, o := range r.DateOverrides {
		if o.Date == key {
			return o.Reason
		}
	}
	return nil
}
