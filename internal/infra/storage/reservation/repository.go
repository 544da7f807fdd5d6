package reservation

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

const table = "slot_reservations"

var columns = []string{
	"id",
	"rule_id",
	"slot_start",
	"slot_end",
	"status",
	"user_id",
	"consultation_id",
	"expires_at",
	"created_at",
	"updated_at",
}

// Repository удержания емкости слотов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория удержаний
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет новое удержание. ID генерируется вызывающей стороной.
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns(
			"id",
			"rule_id",
			"slot_start",
			"slot_end",
			"status",
			"user_id",
			"expires_at",
		).
		Values(
			res.ID,
			res.RuleID,
			res.SlotStart,
			res.SlotEnd,
			res.Status,
			res.UserID,
			res.ExpiresAt,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	created := *res
	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}
	created.CreatedAt = createdAt.Time
	created.UpdatedAt = updatedAt.Time

	return &created, nil
}

// GetByID получает удержание по ID, внутри транзакции с блокировкой строки
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	var res domain.Reservation
	var userID, consultationID sql.NullInt64
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&res.ID,
		&res.RuleID,
		&res.SlotStart,
		&res.SlotEnd,
		&res.Status,
		&userID,
		&consultationID,
		&res.ExpiresAt,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %w", ErrScanRow, err)
	}

	if userID.Valid {
		v := userID.Int64
		res.UserID = &v
	}
	if consultationID.Valid {
		v := consultationID.Int64
		res.ConsultationID = &v
	}
	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return &res, nil
}

// CountHeld считает действующие удержания слота на момент now.
// Удержания, по которым уже создана активная консультация, не учитываются:
// они входят в число записей слота.
func (r *Repository) CountHeld(ctx context.Context, ruleID int64, slotStart, now time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From(table).
		Where(squirrel.Eq{
			"rule_id":    ruleID,
			"slot_start": slotStart,
			"status":     domain.ReservationHeld,
		}).
		Where(squirrel.Gt{"expires_at": now}).
		Where(
			"NOT EXISTS (SELECT 1 FROM consultations c WHERE c.reservation_id = "+table+".id AND c.status <> ?)",
			domain.ConsultationCanceled,
		).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountHeld - build count query: %w", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountHeld - execute count: %w", ErrExecQuery, err)
	}

	return count, nil
}

// CountByConsultation считает удержания, кроме except, уже привязанные к консультации
func (r *Repository) CountByConsultation(ctx context.Context, consultationID int64, except uuid.UUID) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From(table).
		Where(squirrel.Eq{"consultation_id": consultationID}).
		Where(squirrel.NotEq{"id": except}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountByConsultation - build count query: %w", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountByConsultation - execute count: %w", ErrExecQuery, err)
	}

	return count, nil
}

// UpdateStatus меняет статус удержания и, при подтверждении, привязывает консультацию
func (r *Repository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.ReservationStatus,
	consultationID *int64,
) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update(table).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if consultationID != nil {
		updateBuilder = updateBuilder.Set("consultation_id", *consultationID)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %w", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrReservationNotFound
	}

	return nil
}

// ReleaseExpired освобождает все удержания с истекшим сроком. Возвращает количество освобожденных.
func (r *Repository) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("status", domain.ReservationReleased).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"status": domain.ReservationHeld}).
		Where(squirrel.LtOrEq{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseExpired - build update query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseExpired - execute update: %w", ErrExecQuery, err)
	}

	released, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: ReleaseExpired - get rows affected: %w", ErrExecQuery, err)
	}

	return released, nil
}
