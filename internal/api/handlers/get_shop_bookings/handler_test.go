package get_shop_bookings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) GetShopBookings(ctx context.Context, req *models.GetShopBookingsRequest) (*models.BookingListResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.BookingListResponse)
	return resp, args.Error(1)
}

func serve(svc *mockService, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shops/1/bookings?"+query, nil)
	req = mux.SetURLVars(req, map[string]string{"shopId": "1"})
	req = req.WithContext(middleware.WithUserID(req.Context(), 100))
	rec := httptest.NewRecorder()
	NewHandler(svc, logger.NewNop()).Handle(rec, req)
	return rec
}

func TestToServiceRequest(t *testing.T) {
	query, _ := url.ParseQuery("resourceId=2&date=2025-06-02&status=upcoming&includeInactive=true")

	req, err := ToServiceRequest(1, 100, query)

	require.NoError(t, err)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(2), *req.ResourceID)
	assert.Equal(t, day, *req.StartDate)
	assert.Equal(t, day, *req.EndDate)
	assert.Equal(t, "upcoming", *req.Status)
	assert.True(t, req.IncludeInactive)
}

func TestToServiceRequest_Period(t *testing.T) {
	query, _ := url.ParseQuery("startDate=2025-06-01&endDate=2025-06-30")

	req, err := ToServiceRequest(1, 100, query)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *req.StartDate)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), *req.EndDate)
	assert.Nil(t, req.ResourceID)
}

func TestToServiceRequest_Invalid(t *testing.T) {
	for _, raw := range []string{
		"resourceId=x",
		"date=2025/06/02",
		"date=2025-06-02&startDate=2025-06-01",
		"endDate=tomorrow",
		"includeInactive=maybe",
	} {
		query, _ := url.ParseQuery(raw)
		_, err := ToServiceRequest(1, 100, query)
		assert.Error(t, err, raw)
	}
}

func TestHandle(t *testing.T) {
	svc := &mockService{}
	svc.On("GetShopBookings", mock.Anything, mock.MatchedBy(func(req *models.GetShopBookingsRequest) bool {
		return req.ShopID == 1 && req.UserID == 100
	})).Return(&models.BookingListResponse{Bookings: []models.BookingResponse{{ID: 5}}}, nil).Once()

	rec := serve(svc, "date=2025-06-02")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":5`)

	svc.On("GetShopBookings", mock.Anything, mock.Anything).Return(nil, bookings.ErrInvalidTimeRange).Once()
	assert.Equal(t, http.StatusBadRequest, serve(svc, "").Code)

	svc.On("GetShopBookings", mock.Anything, mock.Anything).Return(nil, bookings.ErrAccessDenied).Once()
	assert.Equal(t, http.StatusForbidden, serve(svc, "").Code)

	svc.On("GetShopBookings", mock.Anything, mock.Anything).Return(nil, bookings.ErrShopNotFound).Once()
	assert.Equal(t, http.StatusNotFound, serve(svc, "").Code)
}
