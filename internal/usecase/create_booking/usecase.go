package create_booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/lock"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	shopRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/shop"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/eventbus"
	userClient "github.com/m04kA/SMC-SchedulingService/internal/integrations/userservice"
	"github.com/m04kA/SMC-SchedulingService/pkg/clock"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

// Значения меток метрик
const (
	assignmentSpecific = "specific"
	assignmentAny      = "any"

	conflictStagePrecheck = "precheck"
	conflictStageLock     = "lock"
	conflictStageCommit   = "commit"
	conflictStageStorage  = "storage"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	shopRepo     ShopRepository
	userClient   UserServiceClient
	txManager    TransactionManager
	locker       Locker
	publisher    EventPublisher
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger

	pick    func(n int) int // выбор мастера при "any"
	newCode func() string   // PIN для отметки о приходе
}

// NewUseCase создает новый экземпляр use case.
// userClient, publisher и metrics могут быть nil.
func NewUseCase(
	bookingRepo BookingRepository,
	shopRepo ShopRepository,
	userClient UserServiceClient,
	txManager TransactionManager,
	locker Locker,
	publisher EventPublisher,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		shopRepo:     shopRepo,
		userClient:   userClient,
		txManager:    txManager,
		locker:       locker,
		publisher:    publisher,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
		pick:         rand.IntN,
		newCode:      confirmationCode,
	}
}

// Execute выполняет use case создания бронирования.
// Проверка свободного времени и вставка выполняются под блокировкой (мастер, дата)
// в сериализуемой транзакции; ограничение БД отсекает пересечения, прошедшие мимо них.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: caller=%d, shop=%d, resource=%s, date=%s, time=%s, duration=%d, type=%s",
		req.CallerID, req.ShopID, resourceLabel(req.ResourceID), req.Date.Format(domain.DateFormat),
		req.StartTime, req.DurationMinutes, req.Type)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}
	bookingType, _ := domain.ParseBookingType(string(req.Type))
	date := clock.DateOnly(req.Date)

	// 2. Получаем текущее время в часовом поясе бизнеса
	now := uc.timeProvider.Now()

	// 3. Получаем политику салона
	shop, err := uc.shopRepo.GetShop(ctx, req.ShopID)
	if err != nil {
		if errors.Is(err, shopRepo.ErrShopNotFound) {
			uc.logger.Warn("CreateBooking: shop id=%d not found", req.ShopID)
			return nil, ErrShopNotFound
		}
		uc.logger.Error("CreateBooking: failed to get shop id=%d: %v", req.ShopID, err)
		return nil, fmt.Errorf("%w: failed to get shop: %w", ErrInternal, err)
	}

	// 4. Walk-in и блокировки времени создает только владелец салона
	if bookingType != domain.TypeOnline && !shop.IsOwnedBy(req.CallerID) {
		uc.logger.Warn("CreateBooking: user=%d is not the owner of shop=%d, type=%s", req.CallerID, req.ShopID, bookingType)
		return nil, ErrAccessDenied
	}

	// 5. Проверяем окно бронирования (дата и minNotice)
	if !bookingType.SkipsNoticeWindow() {
		if err := domain.CheckDateWindow(date, now, shop.MaxNoticeDays); err != nil {
			uc.logger.Warn("CreateBooking: date validation failed: %v", err)
			return nil, fmt.Errorf("%w: %w", ErrPastOrTooFarAhead, err)
		}
		if err := domain.CheckStartWindow(date, now, req.StartTime.Minutes(), shop.MinNoticeMinutes); err != nil {
			uc.logger.Warn("CreateBooking: booking time validation failed: %v", err)
			return nil, fmt.Errorf("%w: %w", ErrPastOrTooFarAhead, err)
		}
	}

	// 6. Собираем бронирование с денормализованными данными клиента
	booking, err := uc.newBooking(req, shop, bookingType, date)
	if err != nil {
		return nil, err
	}
	if bookingType == domain.TypeOnline {
		if err := uc.attachCustomer(ctx, booking, req.CallerID); err != nil {
			return nil, err
		}
	}

	// 7. Определяем мастеров-кандидатов
	assignment := assignmentSpecific
	var candidates []domain.ResourceSchedule
	if req.ResourceID != nil {
		candidates, err = uc.specificCandidate(ctx, req.ShopID, *req.ResourceID, date)
	} else {
		assignment = assignmentAny
		candidates, err = uc.freeCandidates(ctx, booking)
	}
	if err != nil {
		return nil, err
	}

	// 8. Фиксируем бронирование на одном из кандидатов
	created, err := uc.commit(ctx, booking, candidates)
	if err != nil {
		if errors.Is(err, ErrSlotNotAvailable) {
			uc.logger.Warn("CreateBooking: slot %s %s not available in shop=%d, resource=%s",
				date.Format(domain.DateFormat), req.StartTime, req.ShopID, resourceLabel(req.ResourceID))
			return nil, ErrSlotNotAvailable
		}
		uc.logger.Error("CreateBooking: failed to commit booking: %v", err)
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d, resource=%d, status=%s, assignment=%s",
		created.ID, created.ResourceID, created.Status, assignment)

	// 9. Метрики и событие
	if uc.metrics != nil {
		uc.metrics.IncBookingCreated(string(created.Status), assignment)
	}
	uc.publish(ctx, created, now)

	return toResponse(created), nil
}

// newBooking собирает бронирование без мастера: он назначается при фиксации
func (uc *UseCase) newBooking(req *Request, shop *domain.Shop, bookingType domain.BookingType, date time.Time) (*domain.Booking, error) {
	endTime, err := req.StartTime.AddMinutes(req.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("%w: end time: %v", ErrInvalidInput, err)
	}

	booking := &domain.Booking{
		ShopID:           shop.ID,
		BookingDate:      date,
		StartTime:        req.StartTime,
		EndTime:          endTime,
		DurationMinutes:  req.DurationMinutes,
		BufferMinutes:    shop.BufferMinutes,
		Status:           shop.InitialStatus(bookingType),
		Type:             bookingType,
		ServiceNames:     req.ServiceNames,
		TotalPrice:       req.TotalPrice,
		ConfirmationCode: uc.newCode(),
		Notes:            req.Notes,
	}

	switch bookingType {
	case domain.TypeOnline:
		booking.UserID = ptr.Ptr(req.CallerID)
	case domain.TypeWalkIn:
		booking.CustomerName = req.CustomerName
		booking.CustomerPhone = req.CustomerPhone
	}

	if booking.ServiceNames == nil {
		booking.ServiceNames = []string{}
	}

	return booking, nil
}

// attachCustomer денормализует имя и телефон клиента.
// Недоступность UserService не мешает бронированию.
func (uc *UseCase) attachCustomer(ctx context.Context, booking *domain.Booking, userID int64) error {
	if uc.userClient == nil {
		return nil
	}

	user, err := uc.userClient.GetUserWithGracefulDegradation(ctx, userID)
	if err != nil {
		if errors.Is(err, userClient.ErrUserNotFound) {
			uc.logger.Warn("CreateBooking: user id=%d not found", userID)
			return ErrUserNotFound
		}
		uc.logger.Warn("CreateBooking: creating booking without customer data for user id=%d: %v", userID, err)
		return nil
	}

	if user.Name != "" {
		booking.CustomerName = ptr.Ptr(user.Name)
	}
	booking.CustomerPhone = user.Phone
	return nil
}

// specificCandidate проверяет выбранного мастера и разрешает его расписание
func (uc *UseCase) specificCandidate(ctx context.Context, shopID, resourceID int64, date time.Time) ([]domain.ResourceSchedule, error) {
	resource, err := uc.shopRepo.GetResource(ctx, shopID, resourceID, date)
	if err != nil {
		if errors.Is(err, shopRepo.ErrResourceNotFound) {
			uc.logger.Warn("CreateBooking: resource id=%d not found in shop id=%d", resourceID, shopID)
			return nil, ErrResourceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get resource id=%d: %v", resourceID, err)
		return nil, fmt.Errorf("%w: failed to get resource: %w", ErrInternal, err)
	}

	if !resource.IsActive {
		uc.logger.Warn("CreateBooking: resource id=%d is inactive", resourceID)
		uc.conflict(conflictStagePrecheck)
		return nil, ErrSlotNotAvailable
	}

	schedule, err := domain.ResolveSchedule(resource, date)
	if err != nil {
		uc.logger.Error("CreateBooking: resource id=%d has invalid schedule on %s: %v",
			resourceID, date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}

	return []domain.ResourceSchedule{{ResourceID: resource.ID, Schedule: schedule}}, nil
}

// freeCandidates активные мастера салона, свободные в запрошенное время по снимку бронирований
func (uc *UseCase) freeCandidates(ctx context.Context, booking *domain.Booking) ([]domain.ResourceSchedule, error) {
	date := booking.BookingDate

	resources, err := uc.shopRepo.ListResources(ctx, domain.ResourceFilter{
		ShopID:        booking.ShopID,
		ActiveOnly:    true,
		OverridesFrom: &date,
		OverridesTo:   &date,
	})
	if err != nil {
		uc.logger.Error("CreateBooking: failed to list resources of shop=%d: %v", booking.ShopID, err)
		return nil, fmt.Errorf("%w: failed to list resources: %w", ErrInternal, err)
	}

	pool, invalid := domain.ResolveAll(resources, date)
	for id, err := range invalid {
		uc.logger.Warn("CreateBooking: resource id=%d treated as closed on %s: %v", id, date.Format(domain.DateFormat), err)
	}

	snapshot, err := uc.bookingRepo.GetByShopWithFilter(ctx, domain.ShopBookingsFilter{
		ShopID:    booking.ShopID,
		StartDate: &date,
		EndDate:   &date,
	})
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %w", ErrInternal, err)
	}

	start := booking.StartMinute()
	free := domain.FreeResources(pool, snapshot, start, booking.DurationMinutes, booking.BufferMinutes)
	if len(free) == 0 {
		uc.conflict(conflictStagePrecheck)
		return nil, ErrSlotNotAvailable
	}

	candidates := make([]domain.ResourceSchedule, 0, len(free))
	for _, rs := range pool {
		if slices.Contains(free, rs.ResourceID) {
			candidates = append(candidates, rs)
		}
	}

	uc.logger.Info("CreateBooking: %d of %d resources free at %s %s",
		len(candidates), len(pool), date.Format(domain.DateFormat), booking.StartTime)
	return candidates, nil
}

// commit выбирает кандидата случайно и равновероятно; если его успели занять,
// пробует оставшихся.
func (uc *UseCase) commit(ctx context.Context, booking *domain.Booking, candidates []domain.ResourceSchedule) (*domain.Booking, error) {
	remaining := slices.Clone(candidates)

	for len(remaining) > 0 {
		i := 0
		if len(remaining) > 1 {
			i = uc.pick(len(remaining))
		}

		created, err := uc.commitOn(ctx, booking, remaining[i])
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrSlotNotAvailable) {
			return nil, err
		}

		uc.logger.Info("CreateBooking: resource id=%d taken concurrently: %v", remaining[i].ResourceID, err)
		remaining = slices.Delete(remaining, i, i+1)
	}

	return nil, ErrSlotNotAvailable
}

// commitOn повторно проверяет мастера под блокировкой и в транзакции, затем сохраняет бронирование
func (uc *UseCase) commitOn(ctx context.Context, booking *domain.Booking, rs domain.ResourceSchedule) (*domain.Booking, error) {
	unlock, err := uc.locker.Lock(ctx, lock.ResourceDayKey(rs.ResourceID, booking.BookingDate))
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			uc.conflict(conflictStageLock)
			return nil, fmt.Errorf("%w: %w", ErrSlotNotAvailable, err)
		}
		return nil, fmt.Errorf("%w: failed to lock resource: %w", ErrInternal, err)
	}
	defer unlock()

	var created *domain.Booking

	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// Получаем активные бронирования мастера с блокировкой (FOR UPDATE)
		existing, err := uc.bookingRepo.GetActiveByResourceAndDate(txCtx, rs.ResourceID, booking.BookingDate)
		if err != nil {
			return fmt.Errorf("%w: failed to get bookings: %w", ErrInternal, err)
		}

		if !domain.IsFree(rs.ResourceID, rs.Schedule, existing, booking.StartMinute(), booking.DurationMinutes, booking.BufferMinutes) {
			uc.conflict(conflictStageCommit)
			return ErrSlotNotAvailable
		}

		candidate := *booking
		candidate.ResourceID = rs.ResourceID

		created, err = uc.bookingRepo.Create(txCtx, &candidate)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrSlotNotAvailable) {
				uc.conflict(conflictStageStorage)
				return fmt.Errorf("%w: %w", ErrSlotNotAvailable, err)
			}
			return fmt.Errorf("%w: failed to create booking: %w", ErrInternal, err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrSlotNotAvailable) || errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: transaction failed: %w", ErrInternal, err)
	}

	return created, nil
}

func (uc *UseCase) conflict(stage string) {
	if uc.metrics != nil {
		uc.metrics.IncSlotConflict(stage)
	}
}

// publish отправляет событие; ошибка брокера не отменяет бронирование
func (uc *UseCase) publish(ctx context.Context, b *domain.Booking, now time.Time) {
	if uc.publisher == nil {
		return
	}
	event := eventbus.NewBookingEvent(eventbus.EventBookingCreated, b, now)
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn("CreateBooking: failed to publish event for booking id=%d: %v", b.ID, err)
	}
}

// confirmationCode 4-значный PIN для отметки о приходе
func confirmationCode() string {
	return fmt.Sprintf("%0*d", domain.ConfirmationCodeLength, rand.IntN(10000))
}

func toResponse(b *domain.Booking) *Response {
	return &Response{
		ID:               b.ID,
		UserID:           b.UserID,
		ShopID:           b.ShopID,
		ResourceID:       b.ResourceID,
		BookingDate:      b.BookingDate,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		DurationMinutes:  b.DurationMinutes,
		Status:           string(b.Status),
		Type:             string(b.Type),
		ServiceNames:     b.ServiceNames,
		TotalPrice:       b.TotalPrice,
		ConfirmationCode: b.ConfirmationCode,
		CustomerName:     b.CustomerName,
		CustomerPhone:    b.CustomerPhone,
		Notes:            b.Notes,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func resourceLabel(id *int64) string {
	if id == nil {
		return domain.ResourceSelectorAny
	}
	return fmt.Sprintf("%d", *id)
}
