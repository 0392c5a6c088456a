package bookings

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/storage/shop"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/eventbus"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/clock"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo  BookingRepository
	shopRepo     ShopRepository
	txManager    TransactionManager
	publisher    EventPublisher
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований.
// publisher и metrics могут быть nil.
func NewService(
	bookingRepo BookingRepository,
	shopRepo ShopRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		shopRepo:     shopRepo,
		txManager:    txManager,
		publisher:    publisher,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// GetByID получает бронирование по ID
// Видеть бронирование могут клиент и владелец салона, PIN показывается только клиенту
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, userID)

	b, err := s.getBooking(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	// Проверяем права доступа
	if err := s.checkUserAccess(ctx, b, userID); err != nil {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", userID, id)
		return nil, err
	}

	resp := models.FromDomainBooking(b)
	if !b.IsOwnedBy(userID) {
		resp.ConfirmationCode = ""
	}

	s.logger.Info("GetByID: successfully fetched booking id=%d", id)
	return resp, nil
}

// GetUserBookings получает историю бронирований пользователя
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", req.UserID, req.Status)

	if req.RequesterID != req.UserID {
		s.logger.Warn("GetUserBookings: user=%d requested bookings of user=%d", req.RequesterID, req.UserID)
		return nil, ErrAccessDenied
	}

	// Конвертируем статус из строки в domain.BookingStatus
	var domainStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserBookings: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		domainStatus = &status
	}

	bookings, err := s.bookingRepo.GetByUserID(ctx, req.UserID, domainStatus)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: successfully fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings, true), nil
}

// GetShopBookings получает бронирования салона с гибкой фильтрацией
// Доступно только владельцу салона
//
// Примеры использования:
// - Все активные бронирования: GetShopBookings(ctx, &GetShopBookingsRequest{ShopID: 1, UserID: 100})
// - Календарь мастера: указать ResourceID
// - День салона: StartDate и EndDate указывают на одну дату
// - Включая отменённые: IncludeInactive = true
func (s *Service) GetShopBookings(ctx context.Context, req *models.GetShopBookingsRequest) (*models.BookingListResponse, error) {
	// Логируем запрос с деталями фильтрации
	logMsg := fmt.Sprintf("GetShopBookings: fetching bookings for shop=%d, user=%d", req.ShopID, req.UserID)
	if req.ResourceID != nil {
		logMsg += fmt.Sprintf(", resource=%d", *req.ResourceID)
	}
	if req.StartDate != nil && req.EndDate != nil {
		logMsg += fmt.Sprintf(", period=%s to %s", req.StartDate.Format(domain.DateFormat), req.EndDate.Format(domain.DateFormat))
	}
	if req.Status != nil {
		logMsg += fmt.Sprintf(", status=%s", *req.Status)
	}
	if req.IncludeInactive {
		logMsg += ", includeInactive=true"
	}
	s.logger.Info(logMsg)

	if err := validateRange(req); err != nil {
		s.logger.Warn("GetShopBookings: invalid period for shop=%d: %v", req.ShopID, err)
		return nil, err
	}

	// Проверяем права доступа владельца
	if err := s.checkOwnerAccess(ctx, req.ShopID, req.UserID); err != nil {
		return nil, err
	}

	// Конвертируем request в domain фильтр
	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetShopBookings: invalid filter for shop=%d: %v", req.ShopID, err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.GetByShopWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetShopBookings: repository error for shop=%d: %v", req.ShopID, err)
		return nil, fmt.Errorf("%w: GetShopBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetShopBookings: successfully fetched %d bookings for shop=%d", len(bookings), req.ShopID)
	return models.FromDomainBookingList(bookings, false), nil
}

// Cancel отменяет бронирование
// Клиент отменяет своё бронирование, владелец салона любое бронирование салона
func (s *Service) Cancel(ctx context.Context, bookingID int64, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d by user=%d", bookingID, req.UserID)

	if req.CancellationReason != nil && utf8.RuneCountInString(*req.CancellationReason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: cancellation reason exceeds %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	var cancelled *domain.Booking
	var previous domain.BookingStatus

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Получаем бронирование с блокировкой строки
		b, err := s.getBooking(txCtx, "Cancel", bookingID)
		if err != nil {
			return err
		}

		// 2. Проверяем права: клиент или владелец салона
		if !b.IsOwnedBy(req.UserID) {
			if err := s.checkOwnerAccess(txCtx, b.ShopID, req.UserID); err != nil {
				s.logger.Warn("Cancel: access denied for user=%d to cancel booking id=%d", req.UserID, bookingID)
				return ErrAccessDenied
			}
		}

		// 3. Проверяем, можно ли отменить бронирование
		if !b.CanBeCancelled() {
			s.logger.Warn("Cancel: booking id=%d cannot be cancelled, status=%s", bookingID, b.Status)
			return ErrCannotCancel
		}

		// 4. Отменяем
		if err := s.bookingRepo.Cancel(txCtx, bookingID, req.CancellationReason); err != nil {
			return s.mapWriteError("Cancel", bookingID, err)
		}

		now := s.timeProvider.Now()
		previous = b.Status
		b.Status = domain.StatusCancelled
		b.CancellationReason = req.CancellationReason
		b.CancelledAt = &now
		b.UpdatedAt = now
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.incStatusChange(domain.StatusCancelled)
	s.publish(ctx, eventbus.EventBookingCancelled, cancelled, previous)

	s.logger.Info("Cancel: successfully cancelled booking id=%d (was %s)", bookingID, previous)

	resp := models.FromDomainBooking(cancelled)
	if !cancelled.IsOwnedBy(req.UserID) {
		resp.ConfirmationCode = ""
	}
	return resp, nil
}

// UpdateStatus обновляет статус бронирования
// Доступно только владельцу салона. Отметка о приходе требует PIN клиента.
func (s *Service) UpdateStatus(ctx context.Context, bookingID int64, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("UpdateStatus: updating booking id=%d to status=%s by user=%d",
		bookingID, req.Status, req.UserID)

	// Валидируем и конвертируем статус
	newStatus, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%s for booking id=%d", req.Status, bookingID)
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	var updated *domain.Booking
	var previous domain.BookingStatus

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Получаем бронирование с блокировкой строки
		b, err := s.getBooking(txCtx, "UpdateStatus", bookingID)
		if err != nil {
			return err
		}

		// 2. Проверяем права доступа (только владелец салона)
		if err := s.checkOwnerAccess(txCtx, b.ShopID, req.UserID); err != nil {
			return err
		}

		// 3. Проверяем допустимость перехода
		if !b.CanTransitionTo(newStatus) {
			s.logger.Warn("UpdateStatus: transition %s -> %s not allowed for booking id=%d", b.Status, newStatus, bookingID)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, newStatus)
		}

		// 4. Отметка о приходе по PIN клиента
		if newStatus == domain.StatusCheckedIn {
			if req.ConfirmationCode == nil || *req.ConfirmationCode != b.ConfirmationCode {
				s.logger.Warn("UpdateStatus: confirmation code mismatch for booking id=%d", bookingID)
				return ErrInvalidConfirmationCode
			}
		}

		// 5. Сохраняем. Отмена идёт через Cancel, чтобы проставить cancelled_at.
		if newStatus == domain.StatusCancelled {
			err = s.bookingRepo.Cancel(txCtx, bookingID, nil)
		} else {
			err = s.bookingRepo.UpdateStatus(txCtx, bookingID, newStatus)
		}
		if err != nil {
			return s.mapWriteError("UpdateStatus", bookingID, err)
		}

		now := s.timeProvider.Now()
		previous = b.Status
		b.Status = newStatus
		b.UpdatedAt = now
		if newStatus == domain.StatusCancelled {
			b.CancelledAt = &now
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.incStatusChange(newStatus)

	eventType := eventbus.EventBookingStatusChanged
	if newStatus == domain.StatusCancelled {
		eventType = eventbus.EventBookingCancelled
	}
	s.publish(ctx, eventType, updated, previous)

	s.logger.Info("UpdateStatus: successfully updated booking id=%d %s -> %s", bookingID, previous, newStatus)

	resp := models.FromDomainBooking(updated)
	resp.ConfirmationCode = ""
	return resp, nil
}

// Вспомогательные методы

func (s *Service) getBooking(ctx context.Context, op string, id int64) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
	}
	return b, nil
}

func (s *Service) mapWriteError(op string, id int64, err error) error {
	if errors.Is(err, booking.ErrBookingNotFound) {
		s.logger.Warn("%s: booking id=%d not found during update", op, id)
		return ErrBookingNotFound
	}
	s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
	return fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
}

func (s *Service) incStatusChange(status domain.BookingStatus) {
	if s.metrics != nil {
		s.metrics.IncStatusChange(string(status))
	}
}

// publish отправляет событие; ошибка брокера не откатывает изменение
func (s *Service) publish(ctx context.Context, eventType string, b *domain.Booking, previous domain.BookingStatus) {
	if s.publisher == nil {
		return
	}

	event := eventbus.NewBookingEvent(eventType, b, s.timeProvider.Now())
	event.PreviousStatus = string(previous)

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish: event %s for booking id=%d not delivered: %v", eventType, b.ID, err)
	}
}

// checkUserAccess проверяет, что пользователь имеет доступ к бронированию
// Пользователь может видеть своё бронирование или если он владелец салона
func (s *Service) checkUserAccess(ctx context.Context, b *domain.Booking, userID int64) error {
	if b.IsOwnedBy(userID) {
		return nil
	}

	if err := s.checkOwnerAccess(ctx, b.ShopID, userID); err != nil {
		if errors.Is(err, ErrInternal) {
			return err
		}
		return ErrAccessDenied
	}

	return nil
}

// checkOwnerAccess проверяет, что пользователь является владельцем салона
func (s *Service) checkOwnerAccess(ctx context.Context, shopID int64, userID int64) error {
	sh, err := s.shopRepo.GetShop(ctx, shopID)
	if err != nil {
		if errors.Is(err, shop.ErrShopNotFound) {
			s.logger.Warn("checkOwnerAccess: shop id=%d not found", shopID)
			return ErrShopNotFound
		}
		s.logger.Error("checkOwnerAccess: failed to get shop id=%d: %v", shopID, err)
		return fmt.Errorf("%w: checkOwnerAccess - failed to get shop: %w", ErrInternal, err)
	}

	if !sh.IsOwnedBy(userID) {
		s.logger.Warn("checkOwnerAccess: user=%d is not the owner of shop=%d", userID, shopID)
		return ErrAccessDenied
	}

	return nil
}

// validateRange ограничивает период выборки бронирований салона
func validateRange(req *models.GetShopBookingsRequest) error {
	if req.StartDate == nil || req.EndDate == nil {
		return nil
	}
	if req.EndDate.Before(*req.StartDate) {
		return fmt.Errorf("%w: endDate before startDate", ErrInvalidTimeRange)
	}
	if clock.DaysBetween(*req.StartDate, *req.EndDate) > domain.MaxShopBookingsRangeDays {
		return fmt.Errorf("%w: period exceeds %d days", ErrInvalidTimeRange, domain.MaxShopBookingsRangeDays)
	}
	return nil
}
