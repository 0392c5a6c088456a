package create_booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/infra/lock"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	shopRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/shop"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/eventbus"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/userservice"
	"github.com/m04kA/SMC-SchedulingService/pkg/clock"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// memoryBookings потокобезопасное хранилище бронирований без ограничений БД
type memoryBookings struct {
	mu       sync.Mutex
	bookings []*domain.Booking
	nextID   int64

	// beforeRead вызывается перед чтением бронирований мастера внутри транзакции
	beforeRead func(resourceID int64)
	createErr  error
}

func (m *memoryBookings) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}

	m.nextID++
	stored := *b
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.bookings = append(m.bookings, &stored)

	out := stored
	return &out, nil
}

func (m *memoryBookings) GetByShopWithFilter(_ context.Context, filter domain.ShopBookingsFilter) ([]*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Booking
	for _, b := range m.bookings {
		if b.ShopID != filter.ShopID || !b.IsActive() {
			continue
		}
		if filter.StartDate != nil && b.BookingDate.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && b.BookingDate.After(*filter.EndDate) {
			continue
		}
		copied := *b
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memoryBookings) GetActiveByResourceAndDate(_ context.Context, resourceID int64, date time.Time) ([]*domain.Booking, error) {
	if m.beforeRead != nil {
		m.beforeRead(resourceID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Booking
	for _, b := range m.bookings {
		if b.ResourceID == resourceID && b.BookingDate.Equal(date) && b.IsActive() {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memoryBookings) add(b *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	m.bookings = append(m.bookings, b)
}

func (m *memoryBookings) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

type memoryShops struct {
	shop      *domain.Shop
	resources []*domain.Resource
}

func (m *memoryShops) GetShop(_ context.Context, shopID int64) (*domain.Shop, error) {
	if m.shop == nil || m.shop.ID != shopID {
		return nil, shopRepo.ErrShopNotFound
	}
	return m.shop, nil
}

func (m *memoryShops) GetResource(_ context.Context, shopID, resourceID int64, _ time.Time) (*domain.Resource, error) {
	for _, r := range m.resources {
		if r.ShopID == shopID && r.ID == resourceID {
			return r, nil
		}
	}
	return nil, shopRepo.ErrResourceNotFound
}

func (m *memoryShops) ListResources(_ context.Context, filter domain.ResourceFilter) ([]*domain.Resource, error) {
	var out []*domain.Resource
	for _, r := range m.resources {
		if r.ShopID == filter.ShopID && (!filter.ActiveOnly || r.IsActive) {
			out = append(out, r)
		}
	}
	return out, nil
}

type passthroughTx struct{}

func (passthroughTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockUserClient struct {
	mock.Mock
}

func (m *mockUserClient) GetUserWithGracefulDegradation(ctx context.Context, userID int64) (*userservice.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*userservice.User)
	return user, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event eventbus.BookingEvent) error {
	return m.Called(ctx, event).Error(0)
}

const (
	ownerID    = int64(100)
	customerID = int64(42)
)

var (
	ist, _ = time.LoadLocation(clock.DefaultTimezone)
	// 2025-06-02 is a Monday
	today = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	bookings  *memoryBookings
	shops     *memoryShops
	users     *mockUserClient
	publisher *mockPublisher
	uc        *UseCase
}

// newFixture салон с буфером 10 минут: A (09:00-17:00) и B (09:00-13:00), сейчас 07:00
func newFixture(t *testing.T) *fixture {
	t.Helper()

	bookings := &memoryBookings{}
	shops := &memoryShops{
		shop: &domain.Shop{ID: 1, OwnerID: ownerID, BufferMinutes: 10, AutoApprove: true},
		resources: []*domain.Resource{
			{ID: 1, ShopID: 1, Name: "A", DefaultStart: "09:00", DefaultEnd: "17:00", IsActive: true},
			{ID: 2, ShopID: 1, Name: "B", DefaultStart: "09:00", DefaultEnd: "13:00", IsActive: true},
		},
	}
	users := &mockUserClient{}
	users.On("GetUserWithGracefulDegradation", mock.Anything, customerID).
		Return(&userservice.User{ID: customerID, Name: "Ravi", Phone: ptr.Ptr("+911234567890")}, nil).Maybe()
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	now := time.Date(2025, 6, 2, 7, 0, 0, 0, ist)
	uc := NewUseCase(bookings, shops, users, passthroughTx{}, lock.NewLocalLocker(), publisher, nil,
		clock.Fixed(now, ist), logger.NewNop())

	return &fixture{bookings: bookings, shops: shops, users: users, publisher: publisher, uc: uc}
}

func onlineRequest(resourceID *int64, start types.TimeString) *Request {
	return &Request{
		CallerID:        customerID,
		ShopID:          1,
		ResourceID:      resourceID,
		Date:            today,
		StartTime:       start,
		DurationMinutes: 30,
		ServiceNames:    []string{"Haircut"},
		TotalPrice:      250,
	}
}

func existing(resourceID int64, start types.TimeString, duration int) *domain.Booking {
	end, _ := start.AddMinutes(duration)
	return &domain.Booking{
		ShopID:          1,
		ResourceID:      resourceID,
		BookingDate:     today,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: duration,
		BufferMinutes:   10,
		Status:          domain.StatusUpcoming,
	}
}

func TestExecute_SpecificResource(t *testing.T) {
	f := newFixture(t)

	resp, err := f.uc.Execute(context.Background(), onlineRequest(ptr.Ptr(int64(1)), "10:00"))

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ResourceID)
	assert.Equal(t, types.TimeString("10:30"), resp.EndTime)
	assert.Equal(t, string(domain.StatusUpcoming), resp.Status)
	assert.Equal(t, string(domain.TypeOnline), resp.Type)
	assert.Len(t, resp.ConfirmationCode, domain.ConfirmationCodeLength)
	require.NotNil(t, resp.UserID)
	assert.Equal(t, customerID, *resp.UserID)
	require.NotNil(t, resp.CustomerName)
	assert.Equal(t, "Ravi", *resp.CustomerName)

	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e eventbus.BookingEvent) bool {
		return e.EventType == eventbus.EventBookingCreated && e.BookingID == resp.ID
	}))
}

func TestExecute_PendingWithoutAutoApprove(t *testing.T) {
	f := newFixture(t)
	f.shops.shop.AutoApprove = false

	resp, err := f.uc.Execute(context.Background(), onlineRequest(ptr.Ptr(int64(1)), "10:00"))

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
}

func TestExecute_SpecificResourceConflict(t *testing.T) {
	f := newFixture(t)
	f.bookings.add(existing(1, "10:00", 30))

	_, err := f.uc.Execute(context.Background(), onlineRequest(ptr.Ptr(int64(1)), "10:30"))
	assert.ErrorIs(t, err, ErrSlotNotAvailable, "10:30 falls into the buffer of the 10:00 booking")

	resp, err := f.uc.Execute(context.Background(), onlineRequest(ptr.Ptr(int64(1)), "10:45"))
	require.NoError(t, err)
	assert.Equal(t, types.TimeString("10:45"), resp.StartTime)
}

func TestExecute_AnyPicksFreeResource(t *testing.T) {
	f := newFixture(t)
	f.bookings.add(existing(1, "09:00", 30))

	resp, err := f.uc.Execute(context.Background(), onlineRequest(nil, "09:00"))

	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.ResourceID)
}

func TestExecute_AnyOnlyOneResourceAfterItsClose(t *testing.T) {
	f := newFixture(t)

	resp, err := f.uc.Execute(context.Background(), onlineRequest(nil, "13:00"))

	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ResourceID)
}

func TestExecute_AnyNoneFree(t *testing.T) {
	f := newFixture(t)
	f.bookings.add(existing(1, "09:00", 30))
	f.bookings.add(existing(2, "09:00", 30))

	_, err := f.uc.Execute(context.Background(), onlineRequest(nil, "09:15"))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_AnyRetriesWhenCandidateTakenConcurrently(t *testing.T) {
	f := newFixture(t)
	f.uc.pick = func(int) int { return 0 }

	var once sync.Once
	f.bookings.beforeRead = func(resourceID int64) {
		if resourceID == 1 {
			once.Do(func() { f.bookings.add(existing(1, "10:00", 30)) })
		}
	}

	resp, err := f.uc.Execute(context.Background(), onlineRequest(nil, "10:00"))

	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.ResourceID)
}

func TestExecute_AnyFairness(t *testing.T) {
	const runs = 400
	counts := map[int64]int{}

	for i := 0; i < runs; i++ {
		f := newFixture(t)
		resp, err := f.uc.Execute(context.Background(), onlineRequest(nil, "10:00"))
		require.NoError(t, err)
		counts[resp.ResourceID]++
	}

	assert.Len(t, counts, 2)
	for id, n := range counts {
		assert.InDelta(t, runs/2, n, runs*0.15, "resource %d picked %d times", id, n)
	}
}

func TestExecute_ConcurrentCommitsNeverOverlap(t *testing.T) {
	f := newFixture(t)
	const workers = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []int64
		conflicts int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.uc.Execute(context.Background(), onlineRequest(nil, "10:00"))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded = append(succeeded, resp.ResourceID)
			case errors.Is(err, ErrSlotNotAvailable):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []int64{1, 2}, succeeded)
	assert.Equal(t, workers-2, conflicts)
	assert.Equal(t, 2, f.bookings.count())
}

func TestExecute_ConcurrentSpecificCommits(t *testing.T) {
	f := newFixture(t)
	const workers = 20

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)

	for i := 0; i < workers; i++ {
		start := types.MustFromMinutes(600 + (i%3)*15) // 10:00, 10:15, 10:30
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.uc.Execute(context.Background(), onlineRequest(ptr.Ptr(int64(1)), start)); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// все три начала попадают в [start, end+buffer) друг друга
	assert.Equal(t, 1, success)
	assert.Equal(t, 1, f.bookings.count())
}

func TestExecute_StorageGuardMapsToSlotNotAvailable(t *testing.T) {
	f := newFixture(t)
	f.bookings.createErr = fmt.Errorf("%w: resource=1", bookingRepo.ErrSlotNotAvailable)

	_, err := f.uc.Execute(context.Background(), onlineRequest(ptr.Ptr(int64(1)), "10:00"))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_NoticeWindow(t *testing.T) {
	f := newFixture(t)
	f.shops.shop.MinNoticeMinutes = 60
	f.shops.shop.MaxNoticeDays = 7
	ctx := context.Background()

	req := onlineRequest(ptr.Ptr(int64(1)), "09:00")
	req.Date = today.AddDate(0, 0, -1)
	_, err := f.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrPastOrTooFarAhead)

	req = onlineRequest(ptr.Ptr(int64(1)), "09:00")
	req.Date = today.AddDate(0, 0, 8)
	_, err = f.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrPastOrTooFarAhead)

	// сейчас 07:00, ближайшее допустимое начало 08:00
	_, err = f.uc.Execute(ctx, onlineRequest(ptr.Ptr(int64(1)), "07:45"))
	assert.ErrorIs(t, err, ErrPastOrTooFarAhead)

	req = onlineRequest(ptr.Ptr(int64(1)), "09:00")
	req.Date = today.AddDate(0, 0, 7)
	_, err = f.uc.Execute(ctx, req)
	assert.NoError(t, err)
}

func TestExecute_WalkInSkipsNoticeWindow(t *testing.T) {
	f := newFixture(t)
	f.shops.shop.MinNoticeMinutes = 600

	req := onlineRequest(ptr.Ptr(int64(1)), "09:00")
	req.CallerID = ownerID
	req.Type = domain.TypeWalkIn
	req.CustomerName = ptr.Ptr("Walk-in")

	resp, err := f.uc.Execute(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusUpcoming), resp.Status)
	assert.Nil(t, resp.UserID)
	assert.Equal(t, "Walk-in", *resp.CustomerName)
	f.users.AssertNotCalled(t, "GetUserWithGracefulDegradation", mock.Anything, mock.Anything)
}

func TestExecute_BlockedTime(t *testing.T) {
	f := newFixture(t)

	req := onlineRequest(ptr.Ptr(int64(2)), "11:00")
	req.CallerID = ownerID
	req.Type = domain.TypeBlocked
	req.ServiceNames = nil
	req.DurationMinutes = 120

	resp, err := f.uc.Execute(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusBlocked), resp.Status)
	assert.Equal(t, types.TimeString("13:00"), resp.EndTime)
	assert.Empty(t, resp.ServiceNames)

	_, err = f.uc.Execute(context.Background(), onlineRequest(ptr.Ptr(int64(2)), "12:00"))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_OnlyOwnerCreatesWalkIns(t *testing.T) {
	f := newFixture(t)

	req := onlineRequest(ptr.Ptr(int64(1)), "10:00")
	req.Type = domain.TypeWalkIn

	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestExecute_InvalidScheduleOnSpecificResource(t *testing.T) {
	f := newFixture(t)
	f.shops.resources[0].WeeklyOverrides = []domain.WeeklyOverride{
		{Weekday: time.Monday, IsOpen: true, Start: "18:00", End: "10:00"},
	}

	_, err := f.uc.Execute(context.Background(), onlineRequest(ptr.Ptr(int64(1)), "10:00"))
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	// для "any" такой мастер считается закрытым
	resp, err := f.uc.Execute(context.Background(), onlineRequest(nil, "10:00"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.ResourceID)
}

func TestExecute_InactiveResource(t *testing.T) {
	f := newFixture(t)
	f.shops.resources[0].IsActive = false

	_, err := f.uc.Execute(context.Background(), onlineRequest(ptr.Ptr(int64(1)), "10:00"))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestExecute_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := onlineRequest(nil, "10:00")
	req.ShopID = 2
	_, err := f.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, ErrShopNotFound)

	_, err = f.uc.Execute(ctx, onlineRequest(ptr.Ptr(int64(99)), "10:00"))
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestExecute_UserService(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		f := newFixture(t)
		users := &mockUserClient{}
		users.On("GetUserWithGracefulDegradation", mock.Anything, customerID).Return(nil, userservice.ErrUserNotFound)
		f.uc.userClient = users

		_, err := f.uc.Execute(context.Background(), onlineRequest(nil, "10:00"))
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Zero(t, f.bookings.count())
	})

	t.Run("degraded", func(t *testing.T) {
		f := newFixture(t)
		users := &mockUserClient{}
		users.On("GetUserWithGracefulDegradation", mock.Anything, customerID).
			Return(nil, fmt.Errorf("%w: timeout", userservice.ErrServiceDegraded))
		f.uc.userClient = users

		resp, err := f.uc.Execute(context.Background(), onlineRequest(nil, "10:00"))
		require.NoError(t, err)
		assert.Nil(t, resp.CustomerName)
	})
}

func TestExecute_PublishFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	f.uc.publisher = publisher

	_, err := f.uc.Execute(context.Background(), onlineRequest(ptr.Ptr(int64(1)), "10:00"))
	require.NoError(t, err)
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{"no caller", func(r *Request) { r.CallerID = 0 }},
		{"no shop", func(r *Request) { r.ShopID = 0 }},
		{"bad resource", func(r *Request) { r.ResourceID = ptr.Ptr(int64(-1)) }},
		{"no date", func(r *Request) { r.Date = time.Time{} }},
		{"no start", func(r *Request) { r.StartTime = "" }},
		{"bad start", func(r *Request) { r.StartTime = "9am" }},
		{"short", func(r *Request) { r.DurationMinutes = 1 }},
		{"long", func(r *Request) { r.DurationMinutes = 600 }},
		{"past midnight", func(r *Request) { r.StartTime = "23:45"; r.DurationMinutes = 30 }},
		{"no services", func(r *Request) { r.ServiceNames = nil }},
		{"blank service", func(r *Request) { r.ServiceNames = []string{" "} }},
		{"negative price", func(r *Request) { r.TotalPrice = -1 }},
		{"unknown type", func(r *Request) { r.Type = "vip" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := onlineRequest(nil, "10:00")
			tt.mutate(req)
			assert.ErrorIs(t, validateRequest(req), ErrInvalidInput)
		})
	}

	assert.NoError(t, validateRequest(onlineRequest(nil, "10:00")))
}

func TestConfirmationCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := confirmationCode()
		assert.Len(t, code, domain.ConfirmationCodeLength)
		assert.Regexp(t, `^\d{4}$`, code)
	}
}
