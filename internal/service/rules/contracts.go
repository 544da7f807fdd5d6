package rules

import (
	"context"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// RuleRepository интерфейс репозитория правил
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.AvailabilityRule) (*domain.AvailabilityRule, error)
	GetByID(ctx context.Context, id int64) (*domain.AvailabilityRule, error)
	List(ctx context.Context, filter domain.RuleFilter) ([]*domain.AvailabilityRule, error)
	FindOverlapping(ctx context.Context, weekday int, start, end types.TimeString, excludeID *int64) ([]*domain.AvailabilityRule, error)
	Update(ctx context.Context, rule *domain.AvailabilityRule) (*domain.AvailabilityRule, error)
	Delete(ctx context.Context, id int64) error
}

// LogRepository интерфейс журнала изменений правил
type LogRepository interface {
	Append(ctx context.Context, entry *domain.AvailabilityLogEntry) (*domain.AvailabilityLogEntry, error)
	List(ctx context.Context, filter domain.LogFilter) ([]*domain.AvailabilityLogEntry, int, error)
}

// TransactionManager единица работы для изменения правила вместе с записью журнала
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// CacheInvalidator сброс кэша активных правил по дням недели
type CacheInvalidator interface {
	Invalidate(weekdays ...int)
}

// Metrics учет изменений правил
type Metrics interface {
	ObserveRuleMutation(action string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
