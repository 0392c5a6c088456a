package shop

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// Repository читает конфигурацию салонов и мастеров.
// Таблицы принадлежат сервису управления салонами, здесь только чтение.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория салонов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetShop получает политику бронирования салона
func (r *Repository) GetShop(ctx context.Context, shopID int64) (*domain.Shop, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"owner_id",
		"name",
		"buffer_minutes",
		"min_notice_minutes",
		"max_notice_days",
		"auto_approve",
		"created_at",
		"updated_at",
	).
		From("shops").
		Where(squirrel.Eq{"id": shopID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetShop - build select query: %v", ErrBuildQuery, err)
	}

	var shop domain.Shop
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&shop.ID,
		&shop.OwnerID,
		&shop.Name,
		&shop.BufferMinutes,
		&shop.MinNoticeMinutes,
		&shop.MaxNoticeDays,
		&shop.AutoApprove,
		&shop.CreatedAt,
		&shop.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetShop - scan shop: %w", ErrScanRow, err)
	}

	return &shop, nil
}

// GetResource получает мастера салона со всеми уровнями расписания.
// Мастер другого салона считается не найденным.
func (r *Repository) GetResource(ctx context.Context, shopID, resourceID int64, date time.Time) (*domain.Resource, error) {
	resources, err := r.ListResources(ctx, domain.ResourceFilter{
		ShopID:        shopID,
		ResourceID:    &resourceID,
		OverridesFrom: &date,
		OverridesTo:   &date,
	})
	if err != nil {
		return nil, err
	}
	if len(resources) == 0 {
		return nil, ErrResourceNotFound
	}
	return resources[0], nil
}

// ListResources получает мастеров салона, отсортированных по id, вместе с
// перерывами, недельными и датированными переопределениями.
func (r *Repository) ListResources(ctx context.Context, filter domain.ResourceFilter) ([]*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"id",
		"shop_id",
		"name",
		"default_start_minute",
		"default_end_minute",
		"default_breaks",
		"is_active",
	).
		From("resources").
		Where(squirrel.Eq{"shop_id": filter.ShopID}).
		OrderBy("id ASC")

	if filter.ResourceID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"id": *filter.ResourceID})
	}
	if filter.ActiveOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"is_active": true})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListResources - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListResources - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	resources := make([]*domain.Resource, 0)
	byID := make(map[int64]*domain.Resource)

	for rows.Next() {
		var res domain.Resource
		var breaksJSON []byte

		if err := rows.Scan(
			&res.ID,
			&res.ShopID,
			&res.Name,
			&res.DefaultStart,
			&res.DefaultEnd,
			&breaksJSON,
			&res.IsActive,
		); err != nil {
			return nil, fmt.Errorf("%w: ListResources - scan resource: %v", ErrScanRow, err)
		}

		if res.Breaks, err = decodeBreaks(breaksJSON); err != nil {
			return nil, fmt.Errorf("ListResources - resource id=%d: %w", res.ID, err)
		}

		resources = append(resources, &res)
		byID[res.ID] = &res
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListResources - rows error: %v", ErrScanRow, err)
	}

	if len(resources) == 0 {
		return resources, nil
	}

	ids := make([]int64, 0, len(resources))
	for _, res := range resources {
		ids = append(ids, res.ID)
	}

	if err := r.loadWeeklyOverrides(ctx, executor, ids, byID); err != nil {
		return nil, err
	}
	if err := r.loadDateOverrides(ctx, executor, ids, filter, byID); err != nil {
		return nil, err
	}

	return resources, nil
}

func (r *Repository) loadWeeklyOverrides(ctx context.Context, executor DBExecutor, ids []int64, byID map[int64]*domain.Resource) error {
	query, args, err := psqlbuilder.Select(
		"resource_id",
		"weekday",
		"is_open",
		"start_minute",
		"end_minute",
		"breaks",
	).
		From("resource_weekly_overrides").
		Where(squirrel.Eq{"resource_id": ids}).
		OrderBy("resource_id ASC", "weekday ASC").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: loadWeeklyOverrides - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadWeeklyOverrides - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			resourceID int64
			weekday    int
			override   domain.WeeklyOverride
			breaksJSON []byte
		)

		if err := rows.Scan(
			&resourceID,
			&weekday,
			&override.IsOpen,
			&override.Start,
			&override.End,
			&breaksJSON,
		); err != nil {
			return fmt.Errorf("%w: loadWeeklyOverrides - scan row: %v", ErrScanRow, err)
		}

		override.Weekday = time.Weekday(weekday)
		if override.Breaks, err = decodeBreaks(breaksJSON); err != nil {
			return fmt.Errorf("loadWeeklyOverrides - resource id=%d: %w", resourceID, err)
		}

		if res, ok := byID[resourceID]; ok {
			res.WeeklyOverrides = append(res.WeeklyOverrides, override)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadWeeklyOverrides - rows error: %v", ErrScanRow, err)
	}
	return nil
}

func (r *Repository) loadDateOverrides(ctx context.Context, executor DBExecutor, ids []int64, filter domain.ResourceFilter, byID map[int64]*domain.Resource) error {
	selectBuilder := psqlbuilder.Select(
		"resource_id",
		"override_date",
		"is_open",
		"start_minute",
		"end_minute",
		"reason",
	).
		From("resource_date_overrides").
		Where(squirrel.Eq{"resource_id": ids}).
		OrderBy("resource_id ASC", "override_date ASC")

	if filter.OverridesFrom != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"override_date": *filter.OverridesFrom})
	}
	if filter.OverridesTo != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"override_date": *filter.OverridesTo})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: loadDateOverrides - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadDateOverrides - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			resourceID int64
			date       time.Time
			override   domain.DateOverride
		)

		if err := rows.Scan(
			&resourceID,
			&date,
			&override.IsOpen,
			&override.Start,
			&override.End,
			&override.Reason,
		); err != nil {
			return fmt.Errorf("%w: loadDateOverrides - scan row: %v", ErrScanRow, err)
		}

		override.Date = date.Format(domain.DateFormat)

		if res, ok := byID[resourceID]; ok {
			res.DateOverrides = append(res.DateOverrides, override)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadDateOverrides - rows error: %v", ErrScanRow, err)
	}
	return nil
}

// breakRow формат перерыва в JSONB колонках: минуты от полуночи
type breakRow struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label,omitempty"`
}

func decodeBreaks(data []byte) ([]domain.BreakInterval, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var raw []breakRow
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeBreaks, err)
	}

	breaks := make([]domain.BreakInterval, 0, len(raw))
	for _, b := range raw {
		start, err := types.NewTimeStringFromMinutes(b.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeBreaks, err)
		}
		end, err := types.NewTimeStringFromMinutes(b.End)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeBreaks, err)
		}
		breaks = append(breaks, domain.BreakInterval{Start: start, End: end, Label: b.Label})
	}

	return breaks, nil
}
