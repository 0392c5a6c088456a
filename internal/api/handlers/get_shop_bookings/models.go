package get_shop_bookings

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров.
// date задаёт один день и не сочетается со startDate/endDate.
func ToServiceRequest(shopID, userID int64, query url.Values) (*models.GetShopBookingsRequest, error) {
	req := &models.GetShopBookingsRequest{
		UserID:          userID,
		ShopID:          shopID,
		IncludeInactive: false, // По умолчанию только активные
	}

	// Парсим resourceId если указан
	if raw := query.Get("resourceId"); raw != "" {
		resourceID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("resourceId: %w", err)
		}
		req.ResourceID = &resourceID
	}

	// Парсим status если указан
	if status := query.Get("status"); status != "" {
		req.Status = &status
	}

	dateStr, startStr, endStr := query.Get("date"), query.Get("startDate"), query.Get("endDate")
	if dateStr != "" && (startStr != "" || endStr != "") {
		return nil, errors.New("date cannot be combined with startDate/endDate")
	}

	// Парсим date если указана
	if dateStr != "" {
		date, err := time.Parse(domain.DateFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("date: %w", err)
		}
		req.StartDate = &date
		req.EndDate = &date
	}

	if startStr != "" {
		start, err := time.Parse(domain.DateFormat, startStr)
		if err != nil {
			return nil, fmt.Errorf("startDate: %w", err)
		}
		req.StartDate = &start
	}

	if endStr != "" {
		end, err := time.Parse(domain.DateFormat, endStr)
		if err != nil {
			return nil, fmt.Errorf("endDate: %w", err)
		}
		req.EndDate = &end
	}

	// Парсим includeInactive если указан
	if raw := query.Get("includeInactive"); raw != "" {
		includeInactive, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid includeInactive value: %w", err)
		}
		req.IncludeInactive = includeInactive
	}

	return req, nil
}
