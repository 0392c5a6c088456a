package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	shopRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/shop"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/eventbus"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/clock"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *mockBookingRepo) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	args := m.Called(ctx, userID, status)
	list, _ := args.Get(0).([]*domain.Booking)
	return list, args.Error(1)
}

func (m *mockBookingRepo) GetByShopWithFilter(ctx context.Context, filter domain.ShopBookingsFilter) ([]*domain.Booking, error) {
	args := m.Called(ctx, filter)
	list, _ := args.Get(0).([]*domain.Booking)
	return list, args.Error(1)
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockBookingRepo) Cancel(ctx context.Context, id int64, reason *string) error {
	return m.Called(ctx, id, reason).Error(0)
}

type stubShops struct {
	shop *domain.Shop
	err  error
}

func (s *stubShops) GetShop(_ context.Context, shopID int64) (*domain.Shop, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.shop == nil || s.shop.ID != shopID {
		return nil, shopRepo.ErrShopNotFound
	}
	return s.shop, nil
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event eventbus.BookingEvent) error {
	return m.Called(ctx, event).Error(0)
}

type countingMetrics struct {
	statuses []string
}

func (c *countingMetrics) IncStatusChange(status string) {
	c.statuses = append(c.statuses, status)
}

const (
	ownerID    = int64(100)
	customerID = int64(42)
	strangerID = int64(7)
)

var now = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	repo      *mockBookingRepo
	publisher *mockPublisher
	metrics   *countingMetrics
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := &mockBookingRepo{}
	shops := &stubShops{shop: &domain.Shop{ID: 1, OwnerID: ownerID}}
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	metrics := &countingMetrics{}

	svc := NewService(repo, shops, passthroughTx{}, publisher, metrics, clock.Fixed(now, time.UTC), logger.NewNop())

	return &fixture{repo: repo, publisher: publisher, metrics: metrics, svc: svc}
}

func upcomingBooking() *domain.Booking {
	return &domain.Booking{
		ID:               10,
		UserID:           ptr.Ptr(customerID),
		ShopID:           1,
		ResourceID:       1,
		BookingDate:      time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		StartTime:        "10:00",
		EndTime:          "10:30",
		DurationMinutes:  30,
		Status:           domain.StatusUpcoming,
		Type:             domain.TypeOnline,
		ServiceNames:     []string{"Haircut"},
		ConfirmationCode: "0427",
	}
}

func TestGetByID_CodeVisibleOnlyToCustomer(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetByID", mock.Anything, int64(10)).Return(upcomingBooking(), nil)

	resp, err := f.svc.GetByID(context.Background(), 10, customerID)
	require.NoError(t, err)
	assert.Equal(t, "0427", resp.ConfirmationCode)
	assert.Equal(t, "2025-06-03", resp.BookingDate)

	resp, err = f.svc.GetByID(context.Background(), 10, ownerID)
	require.NoError(t, err)
	assert.Empty(t, resp.ConfirmationCode)

	_, err = f.svc.GetByID(context.Background(), 10, strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetByID", mock.Anything, int64(99)).Return(nil, bookingRepo.ErrBookingNotFound)

	_, err := f.svc.GetByID(context.Background(), 99, customerID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestGetUserBookings(t *testing.T) {
	f := newFixture(t)
	status := domain.StatusUpcoming
	f.repo.On("GetByUserID", mock.Anything, customerID, &status).Return([]*domain.Booking{upcomingBooking()}, nil)

	resp, err := f.svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		RequesterID: customerID,
		UserID:      customerID,
		Status:      ptr.Ptr("upcoming"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "0427", resp.Bookings[0].ConfirmationCode)

	_, err = f.svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		RequesterID: strangerID,
		UserID:      customerID,
	})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.GetUserBookings(context.Background(), &models.GetUserBookingsRequest{
		RequesterID: customerID,
		UserID:      customerID,
		Status:      ptr.Ptr("confirmed"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetShopBookings(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	f.repo.On("GetByShopWithFilter", mock.Anything, mock.MatchedBy(func(filter domain.ShopBookingsFilter) bool {
		return filter.ShopID == 1 && filter.IsSingleDate() && filter.ResourceID != nil && *filter.ResourceID == 1
	})).Return([]*domain.Booking{upcomingBooking()}, nil)

	resp, err := f.svc.GetShopBookings(context.Background(), &models.GetShopBookingsRequest{
		UserID:     ownerID,
		ShopID:     1,
		ResourceID: ptr.Ptr(int64(1)),
		StartDate:  &day,
		EndDate:    &day,
	})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 1)
	assert.Empty(t, resp.Bookings[0].ConfirmationCode)
}

func TestGetShopBookings_Errors(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tooFar := start.AddDate(0, 0, domain.MaxShopBookingsRangeDays+1)
	before := start.AddDate(0, 0, -1)

	_, err := f.svc.GetShopBookings(context.Background(), &models.GetShopBookingsRequest{UserID: strangerID, ShopID: 1})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.GetShopBookings(context.Background(), &models.GetShopBookingsRequest{UserID: ownerID, ShopID: 2})
	assert.ErrorIs(t, err, ErrShopNotFound)

	_, err = f.svc.GetShopBookings(context.Background(), &models.GetShopBookingsRequest{
		UserID: ownerID, ShopID: 1, StartDate: &start, EndDate: &tooFar,
	})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = f.svc.GetShopBookings(context.Background(), &models.GetShopBookingsRequest{
		UserID: ownerID, ShopID: 1, StartDate: &start, EndDate: &before,
	})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	f.repo.AssertNotCalled(t, "GetByShopWithFilter", mock.Anything, mock.Anything)
}

func TestCancel_ByCustomer(t *testing.T) {
	f := newFixture(t)
	reason := "running late"
	f.repo.On("GetByID", mock.Anything, int64(10)).Return(upcomingBooking(), nil)
	f.repo.On("Cancel", mock.Anything, int64(10), &reason).Return(nil)

	resp, err := f.svc.Cancel(context.Background(), 10, &models.CancelBookingRequest{
		UserID:             customerID,
		CancellationReason: &reason,
	})

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	require.NotNil(t, resp.CancelledAt)
	assert.Equal(t, now.Format(time.RFC3339), *resp.CancelledAt)
	assert.Equal(t, []string{"cancelled"}, f.metrics.statuses)
	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e eventbus.BookingEvent) bool {
		return e.EventType == eventbus.EventBookingCancelled && e.PreviousStatus == "upcoming"
	}))
}

func TestCancel_ByOwnerAndStranger(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetByID", mock.Anything, int64(10)).Return(upcomingBooking(), nil)
	f.repo.On("Cancel", mock.Anything, int64(10), (*string)(nil)).Return(nil)

	_, err := f.svc.Cancel(context.Background(), 10, &models.CancelBookingRequest{UserID: strangerID})
	assert.ErrorIs(t, err, ErrAccessDenied)

	resp, err := f.svc.Cancel(context.Background(), 10, &models.CancelBookingRequest{UserID: ownerID})
	require.NoError(t, err)
	assert.Empty(t, resp.ConfirmationCode)
	f.repo.AssertNumberOfCalls(t, "Cancel", 1)
}

func TestCancel_FinalStatus(t *testing.T) {
	f := newFixture(t)
	done := upcomingBooking()
	done.Status = domain.StatusCompleted
	f.repo.On("GetByID", mock.Anything, int64(10)).Return(done, nil)

	_, err := f.svc.Cancel(context.Background(), 10, &models.CancelBookingRequest{UserID: customerID})

	assert.ErrorIs(t, err, ErrCannotCancel)
	f.repo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_ReasonTooLong(t *testing.T) {
	f := newFixture(t)
	long := make([]rune, domain.MaxCancellationReasonLength+1)
	for i := range long {
		long[i] = 'x'
	}

	_, err := f.svc.Cancel(context.Background(), 10, &models.CancelBookingRequest{
		UserID:             customerID,
		CancellationReason: ptr.Ptr(string(long)),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateStatus_CheckInRequiresCode(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetByID", mock.Anything, int64(10)).Return(upcomingBooking(), nil)
	f.repo.On("UpdateStatus", mock.Anything, int64(10), domain.StatusCheckedIn).Return(nil)

	_, err := f.svc.UpdateStatus(context.Background(), 10, &models.UpdateStatusRequest{
		UserID: ownerID, Status: "checked_in", ConfirmationCode: ptr.Ptr("1111"),
	})
	assert.ErrorIs(t, err, ErrInvalidConfirmationCode)

	_, err = f.svc.UpdateStatus(context.Background(), 10, &models.UpdateStatusRequest{
		UserID: ownerID, Status: "checked_in",
	})
	assert.ErrorIs(t, err, ErrInvalidConfirmationCode)

	resp, err := f.svc.UpdateStatus(context.Background(), 10, &models.UpdateStatusRequest{
		UserID: ownerID, Status: "checked_in", ConfirmationCode: ptr.Ptr("0427"),
	})
	require.NoError(t, err)
	assert.Equal(t, "checked_in", resp.Status)
	assert.Empty(t, resp.ConfirmationCode)
	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e eventbus.BookingEvent) bool {
		return e.EventType == eventbus.EventBookingStatusChanged && e.Status == "checked_in"
	}))
}

func TestUpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.BookingStatus
		to      string
		wantErr error
	}{
		{name: "approve pending", from: domain.StatusPending, to: "upcoming"},
		{name: "no show", from: domain.StatusUpcoming, to: "no_show"},
		{name: "complete", from: domain.StatusUpcoming, to: "completed"},
		{name: "back to pending", from: domain.StatusUpcoming, to: "pending", wantErr: ErrInvalidTransition},
		{name: "reopen cancelled", from: domain.StatusCancelled, to: "upcoming", wantErr: ErrInvalidTransition},
		{name: "unknown status", from: domain.StatusUpcoming, to: "confirmed", wantErr: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			b := upcomingBooking()
			b.Status = tt.from
			f.repo.On("GetByID", mock.Anything, int64(10)).Return(b, nil)
			f.repo.On("UpdateStatus", mock.Anything, int64(10), mock.Anything).Return(nil)

			resp, err := f.svc.UpdateStatus(context.Background(), 10, &models.UpdateStatusRequest{UserID: ownerID, Status: tt.to})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, resp.Status)
		})
	}
}

func TestUpdateStatus_CancelGoesThroughCancel(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetByID", mock.Anything, int64(10)).Return(upcomingBooking(), nil)
	f.repo.On("Cancel", mock.Anything, int64(10), (*string)(nil)).Return(nil)

	resp, err := f.svc.UpdateStatus(context.Background(), 10, &models.UpdateStatusRequest{UserID: ownerID, Status: "cancelled"})

	require.NoError(t, err)
	assert.NotNil(t, resp.CancelledAt)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_OnlyOwner(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetByID", mock.Anything, int64(10)).Return(upcomingBooking(), nil)

	_, err := f.svc.UpdateStatus(context.Background(), 10, &models.UpdateStatusRequest{UserID: customerID, Status: "completed"})

	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestPublishFailureKeepsChange(t *testing.T) {
	repo := &mockBookingRepo{}
	repo.On("GetByID", mock.Anything, int64(10)).Return(upcomingBooking(), nil)
	repo.On("Cancel", mock.Anything, int64(10), (*string)(nil)).Return(nil)
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := NewService(repo, &stubShops{shop: &domain.Shop{ID: 1, OwnerID: ownerID}}, passthroughTx{}, publisher, nil,
		clock.Fixed(now, time.UTC), logger.NewNop())

	_, err := svc.Cancel(context.Background(), 10, &models.CancelBookingRequest{UserID: customerID})

	require.NoError(t, err)
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}
