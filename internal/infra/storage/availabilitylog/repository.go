package availabilitylog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/psqlbuilder"
)

const table = "availability_logs"

// Repository журнал изменений правил. Записи только добавляются.
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория журнала
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Append добавляет запись в журнал.
// Вызывается в той же транзакции, что и изменение правила.
func (r *Repository) Append(ctx context.Context, entry *domain.AvailabilityLogEntry) (*domain.AvailabilityLogEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"rule_id",
			"action",
			"weekday",
			"start_time",
			"end_time",
			"slot_duration_minutes",
			"max_parallel",
			"is_active",
			"actor_id",
		).
		Values(
			entry.RuleID,
			entry.Action,
			entry.Weekday,
			entry.StartTime,
			entry.EndTime,
			entry.SlotDurationMinutes,
			entry.MaxParallel,
			entry.IsActive,
			entry.ActorID,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Append - build insert query: %w", ErrBuildQuery, err)
	}

	appended := *entry
	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&appended.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: Append - execute insert: %w", ErrExecQuery, err)
	}
	appended.CreatedAt = createdAt.Time

	return &appended, nil
}

// List возвращает страницу журнала и общее количество записей по фильтру
func (r *Repository) List(ctx context.Context, filter domain.LogFilter) ([]*domain.AvailabilityLogEntry, int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	where := squirrel.And{}
	if filter.RuleID != nil {
		where = append(where, squirrel.Eq{"rule_id": *filter.RuleID})
	}
	if filter.Action != nil {
		where = append(where, squirrel.Eq{"action": *filter.Action})
	}

	// 1. Общее количество
	countQuery, countArgs, err := psqlbuilder.Select("COUNT(*)").
		From(table).
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: List - build count query: %w", ErrBuildQuery, err)
	}

	var total int
	if err := executor.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: List - execute count: %w", ErrExecQuery, err)
	}

	// 2. Страница
	query, args, err := psqlbuilder.Select(
		"id",
		"rule_id",
		"action",
		"weekday",
		"start_time",
		"end_time",
		"slot_duration_minutes",
		"max_parallel",
		"is_active",
		"actor_id",
		"created_at",
	).
		From(table).
		Where(where).
		OrderBy(orderBy(filter)...).
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: List - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: List - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]*domain.AvailabilityLogEntry, 0)
	for rows.Next() {
		var entry domain.AvailabilityLogEntry
		var actorID sql.NullInt64
		var createdAt sql.NullTime

		err := rows.Scan(
			&entry.ID,
			&entry.RuleID,
			&entry.Action,
			&entry.Weekday,
			&entry.StartTime,
			&entry.EndTime,
			&entry.SlotDurationMinutes,
			&entry.MaxParallel,
			&entry.IsActive,
			&actorID,
			&createdAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: List - scan row: %w", ErrScanRow, err)
		}

		if actorID.Valid {
			id := actorID.Int64
			entry.ActorID = &id
		}
		entry.CreatedAt = createdAt.Time
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: List - rows error: %w", ErrScanRow, err)
	}

	return entries, total, nil
}

// orderBy строит сортировку. id добавляется последним для стабильной пагинации.
func orderBy(filter domain.LogFilter) []string {
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	var column string
	switch filter.SortBy {
	case domain.LogSortByAction:
		column = "action"
	case domain.LogSortByWeekday:
		column = "weekday"
	default:
		column = "created_at"
	}

	return []string{column + " " + direction, "id " + direction}
}
