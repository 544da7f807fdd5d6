package consultation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/psqlbuilder"
)

const table = "consultations"

var columns = []string{
	"id",
	"user_id",
	"scheduled_at",
	"duration_minutes",
	"status",
	"reservation_id",
	"created_at",
	"updated_at",
}

// Repository чтение консультаций, которыми владеет подсистема бронирования
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория консультаций
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// ListActiveBetween возвращает неотмененные консультации с scheduled_at в [from, to)
func (r *Repository) ListActiveBetween(ctx context.Context, from, to time.Time) ([]*domain.Consultation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.GtOrEq{"scheduled_at": from}).
		Where(squirrel.Lt{"scheduled_at": to}).
		Where(squirrel.NotEq{"status": domain.ConsultationCanceled}).
		OrderBy("scheduled_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveBetween - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveBetween - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	consultations := make([]*domain.Consultation, 0)
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListActiveBetween - scan row: %w", ErrScanRow, err)
		}
		consultations = append(consultations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActiveBetween - rows error: %w", ErrScanRow, err)
	}

	return consultations, nil
}

// CountActiveAt считает неотмененные консультации, начинающиеся ровно в slotStart
func (r *Repository) CountActiveAt(ctx context.Context, slotStart time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From(table).
		Where(squirrel.Eq{"scheduled_at": slotStart}).
		Where(squirrel.NotEq{"status": domain.ConsultationCanceled}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActiveAt - build count query: %w", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActiveAt - execute count: %w", ErrExecQuery, err)
	}

	return count, nil
}

// GetByID получает консультацию по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Consultation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	c, err := scanConsultation(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrConsultationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan consultation: %w", ErrScanRow, err)
	}

	return c, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConsultation(row rowScanner) (*domain.Consultation, error) {
	var c domain.Consultation
	var reservationID uuid.NullUUID
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.ScheduledAt,
		&c.DurationMinutes,
		&c.Status,
		&reservationID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reservationID.Valid {
		id := reservationID.UUID
		c.ReservationID = &id
	}
	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return &c, nil
}
