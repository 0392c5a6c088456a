package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	shopRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/shop"
	"github.com/m04kA/SMC-SchedulingService/pkg/clock"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// DefaultNextSlotHorizonDays на сколько дней вперед максимум ищется ближайший слот
const DefaultNextSlotHorizonDays = 14

// Значения метки result для метрики поиска
const (
	searchResultFound = "found"
	searchResultEmpty = "empty"
)

// UseCase use case для получения доступных слотов для бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	shopRepo     ShopRepository
	timeProvider TimeProvider
	metrics      Metrics
	logger       Logger
	horizonDays  int
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	shopRepo ShopRepository,
	timeProvider TimeProvider,
	metrics Metrics,
	logger Logger,
	horizonDays int,
) *UseCase {
	if horizonDays <= 0 {
		horizonDays = DefaultNextSlotHorizonDays
	}
	return &UseCase{
		bookingRepo:  bookingRepo,
		shopRepo:     shopRepo,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
		horizonDays:  horizonDays,
	}
}

// Execute выполняет use case получения доступных слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: shop=%d, resource=%s, date=%s, duration=%d",
		req.ShopID, resourceLabel(req.ResourceID), req.Date.Format(domain.DateFormat), req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время в часовом поясе бизнеса
	now := uc.timeProvider.Now()
	date := clock.DateOnly(req.Date)

	// 3. Получаем политику салона
	shop, err := uc.getShop(ctx, "GetAvailableSlots", req.ShopID)
	if err != nil {
		return nil, err
	}

	// 4. Получаем мастеров с переопределениями на эту дату
	resources, err := uc.loadResources(ctx, "GetAvailableSlots", req.ShopID, req.ResourceID, date, date)
	if err != nil {
		return nil, err
	}

	// 5. Получаем активные бронирования на дату
	bookings, err := uc.bookingRepo.GetByShopWithFilter(ctx, domain.ShopBookingsFilter{
		ShopID:     req.ShopID,
		ResourceID: req.ResourceID,
		StartDate:  &date,
		EndDate:    &date,
	})
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %w", ErrInternal, err)
	}

	// 6. Разрешаем расписания и ищем слоты
	pool := uc.resolvePool(resources, date, nil)
	query := SearchQuery{
		Date:          date,
		Now:           now,
		Duration:      req.DurationMinutes,
		Earliest:      earliestMinutes(req.Earliest),
		Buffer:        shop.BufferMinutes,
		MinNotice:     shop.MinNoticeMinutes,
		MaxNoticeDays: shop.MaxNoticeDays,
	}

	slots := make([]types.TimeString, 0)
	for start := range SearchSlots(pool, bookings, query) {
		slots = append(slots, types.MustFromMinutes(start))
	}

	uc.observe(len(slots) > 0)
	uc.logger.Info("GetAvailableSlots: found %d slots for shop=%d, resource=%s, date=%s",
		len(slots), req.ShopID, resourceLabel(req.ResourceID), date.Format(domain.DateFormat))

	return &Response{
		Date:            date,
		ShopID:          req.ShopID,
		ResourceID:      req.ResourceID,
		DurationMinutes: req.DurationMinutes,
		Slots:           slots,
	}, nil
}

// NextAvailable ищет ближайший свободный слот начиная с FromDate (или сегодня).
// Горизонт - maxNoticeDays салона, но не больше horizonDays.
func (uc *UseCase) NextAvailable(ctx context.Context, req *NextSlotRequest) (*NextSlotResponse, error) {
	uc.logger.Info("GetNextSlot: shop=%d, resource=%s, duration=%d",
		req.ShopID, resourceLabel(req.ResourceID), req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateNextSlotRequest(req); err != nil {
		uc.logger.Warn("GetNextSlot: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время и политику салона
	now := uc.timeProvider.Now()
	shop, err := uc.getShop(ctx, "GetNextSlot", req.ShopID)
	if err != nil {
		return nil, err
	}

	resp := &NextSlotResponse{
		ShopID:          req.ShopID,
		ResourceID:      req.ResourceID,
		DurationMinutes: req.DurationMinutes,
	}

	// 3. Определяем горизонт поиска
	today := clock.Today(now)
	from := today
	if req.FromDate != nil && clock.DateOnly(*req.FromDate).After(today) {
		from = clock.DateOnly(*req.FromDate)
	}
	horizon := min(shop.NoticeDays(), uc.horizonDays)
	last := today.AddDate(0, 0, horizon)
	if from.After(last) {
		uc.observe(false)
		return resp, nil
	}

	// 4. Загружаем мастеров и бронирования на весь горизонт
	resources, err := uc.loadResources(ctx, "GetNextSlot", req.ShopID, req.ResourceID, from, last)
	if err != nil {
		return nil, err
	}

	bookings, err := uc.bookingRepo.GetByShopWithFilter(ctx, domain.ShopBookingsFilter{
		ShopID:     req.ShopID,
		ResourceID: req.ResourceID,
		StartDate:  &from,
		EndDate:    &last,
	})
	if err != nil {
		uc.logger.Error("GetNextSlot: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %w", ErrInternal, err)
	}
	bookingsByDate := groupByDate(bookings)

	// 5. Идем по дням, первый найденный слот - ответ
	warned := make(map[int64]bool)
	earliest := earliestMinutes(req.Earliest)

	for date := from; !date.After(last); date = date.AddDate(0, 0, 1) {
		key := date.Format(domain.DateFormat)
		pool := uc.resolvePool(resources, date, warned)

		query := SearchQuery{
			Date:          date,
			Now:           now,
			Duration:      req.DurationMinutes,
			Earliest:      earliest,
			Buffer:        shop.BufferMinutes,
			MinNotice:     shop.MinNoticeMinutes,
			MaxNoticeDays: shop.MaxNoticeDays,
		}

		for start := range SearchSlots(pool, bookingsByDate[key], query) {
			uc.observe(true)
			uc.logger.Info("GetNextSlot: shop=%d next slot %s %s", req.ShopID, key, types.MustFromMinutes(start))
			resp.Date = ptr.Ptr(date)
			resp.StartTime = ptr.Ptr(types.MustFromMinutes(start))
			return resp, nil
		}

		earliest = 0
	}

	uc.observe(false)
	uc.logger.Info("GetNextSlot: no slots for shop=%d within %s..%s",
		req.ShopID, from.Format(domain.DateFormat), last.Format(domain.DateFormat))
	return resp, nil
}

func (uc *UseCase) getShop(ctx context.Context, op string, shopID int64) (*domain.Shop, error) {
	shop, err := uc.shopRepo.GetShop(ctx, shopID)
	if err != nil {
		if errors.Is(err, shopRepo.ErrShopNotFound) {
			uc.logger.Warn("%s: shop id=%d not found", op, shopID)
			return nil, ErrShopNotFound
		}
		uc.logger.Error("%s: failed to get shop id=%d: %v", op, shopID, err)
		return nil, fmt.Errorf("%w: failed to get shop: %w", ErrInternal, err)
	}
	return shop, nil
}

// loadResources загружает пул поиска: конкретного мастера или всех активных мастеров салона.
// Неактивный конкретный мастер существует, но слотов не дает.
func (uc *UseCase) loadResources(ctx context.Context, op string, shopID int64, resourceID *int64, from, to time.Time) ([]*domain.Resource, error) {
	resources, err := uc.shopRepo.ListResources(ctx, domain.ResourceFilter{
		ShopID:        shopID,
		ResourceID:    resourceID,
		ActiveOnly:    resourceID == nil,
		OverridesFrom: &from,
		OverridesTo:   &to,
	})
	if err != nil {
		uc.logger.Error("%s: failed to list resources of shop=%d: %v", op, shopID, err)
		return nil, fmt.Errorf("%w: failed to list resources: %w", ErrInternal, err)
	}

	if resourceID != nil && len(resources) == 0 {
		uc.logger.Warn("%s: resource id=%d not found in shop id=%d", op, *resourceID, shopID)
		return nil, ErrResourceNotFound
	}

	active := resources[:0]
	for _, r := range resources {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}

// resolvePool разрешает расписания; мастер с некорректной конфигурацией считается закрытым
func (uc *UseCase) resolvePool(resources []*domain.Resource, date time.Time, warned map[int64]bool) []domain.ResourceSchedule {
	pool, invalid := domain.ResolveAll(resources, date)
	for id, err := range invalid {
		if warned != nil {
			if warned[id] {
				continue
			}
			warned[id] = true
		}
		uc.logger.Warn("SlotSearch: resource id=%d treated as closed on %s: %v", id, date.Format(domain.DateFormat), err)
	}
	return pool
}

func (uc *UseCase) observe(found bool) {
	if uc.metrics == nil {
		return
	}
	if found {
		uc.metrics.IncSlotSearch(searchResultFound)
		return
	}
	uc.metrics.IncSlotSearch(searchResultEmpty)
}

func groupByDate(bookings []*domain.Booking) map[string][]*domain.Booking {
	grouped := make(map[string][]*domain.Booking)
	for _, b := range bookings {
		key := b.BookingDate.Format(domain.DateFormat)
		grouped[key] = append(grouped[key], b)
	}
	return grouped
}

func earliestMinutes(t *types.TimeString) int {
	if t == nil {
		return 0
	}
	return max(t.Minutes(), 0)
}

func resourceLabel(id *int64) string {
	if id == nil {
		return domain.ResourceSelectorAny
	}
	return fmt.Sprintf("%d", *id)
}
