package reserve_slot

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// RuleRepository интерфейс репозитория правил.
// Внутри транзакции GetByID блокирует строку правила.
type RuleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.AvailabilityRule, error)
}

// ConsultationRepository интерфейс репозитория консультаций
type ConsultationRepository interface {
	// CountActiveAt считает неотмененные консультации, начинающиеся ровно в slotStart
	CountActiveAt(ctx context.Context, slotStart time.Time) (int, error)
}

// ReservationRepository интерфейс репозитория удержаний слотов
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	// CountHeld не учитывает удержания, на которые уже ссылается активная консультация
	CountHeld(ctx context.Context, ruleID int64, slotStart, now time.Time) (int, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Metrics счетчики исходов допуска
type Metrics interface {
	ObserveAdmission(outcome string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
