package rule

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/ptr"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

func newRepository(t *testing.T) (*Repository, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), db, mock
}

func ruleRows() *sqlmock.Rows {
	return sqlmock.NewRows(columns)
}

func TestRepository_Create(t *testing.T) {
	repo, _, mock := newRepository(t)
	now := time.Date(2031, time.March, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO availability_rules (weekday,start_time,end_time,slot_duration_minutes,max_parallel,is_active) VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at, updated_at",
	)).
		WithArgs(1, "09:00", "12:00", 60, 2, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))

	input := &domain.AvailabilityRule{
		Weekday:             1,
		StartTime:           "09:00",
		EndTime:             "12:00",
		SlotDurationMinutes: 60,
		MaxParallel:         2,
		IsActive:            true,
	}
	created, err := repo.Create(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, int64(7), created.ID)
	assert.Equal(t, now, created.CreatedAt)
	assert.Zero(t, input.ID, "input is not mutated")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, _, mock := newRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM availability_rules WHERE id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(ruleRows())

	_, err := repo.GetByID(context.Background(), 42)

	assert.ErrorIs(t, err, ErrRuleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID_LocksInsideTransaction(t *testing.T) {
	repo, db, mock := newRepository(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM availability_rules WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(3)).
		WillReturnRows(ruleRows().AddRow(3, 1, "09:00:00", "12:00:00", 60, 2, true, now, now))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	ctx := dbmetrics.WithTx(context.Background(), dbmetrics.SqlTxWrapper{Tx: tx})

	rule, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, types.TimeString("09:00"), rule.StartTime)
	assert.Equal(t, types.TimeString("12:00"), rule.EndTime)
	assert.True(t, rule.IsActive)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindOverlapping(t *testing.T) {
	repo, _, mock := newRepository(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM availability_rules WHERE is_active = $1 AND weekday = $2 AND start_time < $3 AND end_time > $4 AND id <> $5 ORDER BY start_time ASC, id ASC",
	)).
		WithArgs(true, 1, "10:30", "09:30", int64(9)).
		WillReturnRows(ruleRows().AddRow(1, 1, "09:00:00", "10:00:00", 60, 1, true, now, now))

	rules, err := repo.FindOverlapping(context.Background(), 1, "09:30", "10:30", ptr.Ptr(int64(9)))

	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, int64(1), rules[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List_Filters(t *testing.T) {
	repo, _, mock := newRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM availability_rules WHERE weekday = $1 AND is_active = $2 ORDER BY weekday ASC, start_time ASC, id ASC",
	)).
		WithArgs(3, false).
		WillReturnRows(ruleRows())

	rules, err := repo.List(context.Background(), domain.RuleFilter{Weekday: ptr.Ptr(3), Active: ptr.Ptr(false)})

	require.NoError(t, err)
	assert.Empty(t, rules)
	assert.NotNil(t, rules)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update_NotFound(t *testing.T) {
	repo, _, mock := newRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE availability_rules SET")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}))

	_, err := repo.Update(context.Background(), &domain.AvailabilityRule{ID: 5, StartTime: "09:00", EndTime: "10:00"})

	assert.ErrorIs(t, err, ErrRuleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Delete(t *testing.T) {
	repo, _, mock := newRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_rules WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_rules WHERE id = $1")).
		WithArgs(int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.ErrorIs(t, repo.Delete(context.Background(), 6), ErrRuleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ExecErrorIsWrapped(t *testing.T) {
	repo, _, mock := newRepository(t)
	driverErr := errors.New("connection reset")

	mock.ExpectQuery("FROM availability_rules").WillReturnError(driverErr)

	_, err := repo.List(context.Background(), domain.RuleFilter{})

	assert.ErrorIs(t, err, ErrExecQuery)
	assert.ErrorIs(t, err, driverErr)
}
