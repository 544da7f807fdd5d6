package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/m04kA/SMC-AvailabilityService/pkg/dbmetrics"
)

const (
	// DefaultSerializationRetries количество повторов SERIALIZABLE транзакции после конфликта
	DefaultSerializationRetries = 1

	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

var (
	// ErrSerialization конфликт сериализации не разрешился за отведенные повторы
	ErrSerialization = errors.New("txmanager: serialization failure")
	// ErrTransaction ошибка открытия или фиксации транзакции
	ErrTransaction = errors.New("txmanager: transaction error")
)

// Option настройка менеджера транзакций
type Option func(*Manager)

// WithSerializationRetries задает количество повторов для DoSerializable
func WithSerializationRetries(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.serializationRetries = n
		}
	}
}

// Manager выполняет функции в единице работы, передавая транзакцию через контекст.
// Вложенный вызов присоединяется к внешней транзакции.
type Manager struct {
	db                   dbmetrics.TxBeginner
	serializationRetries int
}

// NewTransactionManager создает менеджер транзакций
func NewTransactionManager(db dbmetrics.TxBeginner, opts ...Option) *Manager {
	m := &Manager{
		db:                   db,
		serializationRetries: DefaultSerializationRetries,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do выполняет fn в транзакции READ COMMITTED
func (m *Manager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, 0, fn)
}

// DoSerializable выполняет fn в транзакции SERIALIZABLE, повторяя её при конфликте сериализации
func (m *Manager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, m.serializationRetries, fn)
}

func (m *Manager) run(ctx context.Context, opts *sql.TxOptions, retries int, fn func(ctx context.Context) error) error {
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		err := m.attempt(ctx, opts, fn)
		if err == nil {
			return nil
		}
		if !IsSerializationFailure(err) {
			return err
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	return fmt.Errorf("%w: %w", ErrSerialization, lastErr)
}

func (m *Manager) attempt(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrTransaction, err)
	}

	hooks := &commitHooks{}
	txCtx := withHooks(dbmetrics.WithTx(ctx, tx), hooks)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrTransaction, err)
	}

	hooks.run()
	return nil
}

// IsSerializationFailure проверяет, что ошибка PostgreSQL вызвана конфликтом сериализации или дедлоком
func IsSerializationFailure(err error) bool {
	if errors.Is(err, ErrSerialization) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgSerializationFailure || pqErr.Code == pgDeadlockDetected
	}
	return false
}
