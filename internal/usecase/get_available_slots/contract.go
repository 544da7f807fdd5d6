package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// RuleProvider источник активных правил дня недели (репозиторий или кэш)
type RuleProvider interface {
	ListActiveByWeekday(ctx context.Context, weekday int) ([]*domain.AvailabilityRule, error)
}

// ConsultationRepository интерфейс репозитория консультаций
type ConsultationRepository interface {
	// ListActiveBetween возвращает неотмененные консультации в интервале [from, to)
	ListActiveBetween(ctx context.Context, from, to time.Time) ([]*domain.Consultation, error)
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
