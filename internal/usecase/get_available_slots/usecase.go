package get_available_slots

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// UseCase use case для получения слотов за диапазон дат
type UseCase struct {
	ruleProvider     RuleProvider
	consultationRepo ConsultationRepository
	timeProvider     TimeProvider
	location         *time.Location
	maxRangeDays     int
	logger           Logger
}

// NewUseCase создает новый экземпляр use case.
// location задает зону, в которой правила трактуются как настенное время.
func NewUseCase(
	ruleProvider RuleProvider,
	consultationRepo ConsultationRepository,
	location *time.Location,
	maxRangeDays int,
	logger Logger,
) *UseCase {
	if location == nil {
		location = time.UTC
	}
	if maxRangeDays <= 0 {
		maxRangeDays = domain.DefaultMaxRangeDays
	}

	return &UseCase{
		ruleProvider:     ruleProvider,
		consultationRepo: consultationRepo,
		timeProvider:     &RealTimeProvider{},
		location:         location,
		maxRangeDays:     maxRangeDays,
		logger:           logger,
	}
}

// Execute выполняет use case получения слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: from=%s, to=%s",
		req.From.Format(domain.DateFormat), req.To.Format(domain.DateFormat))

	// 1. Валидация диапазона
	from, to, days, err := validateRange(req, uc.location, uc.maxRangeDays)
	if err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()

	// 3. Получаем консультации за весь диапазон одним запросом
	consultations, err := uc.consultationRepo.ListActiveBetween(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get consultations: %v", err)
		return nil, fmt.Errorf("%w: failed to get consultations: %w", ErrInternal, err)
	}
	byDate := groupByDate(consultations, uc.location)

	// 4. Генерируем слоты по дням, правила читаем один раз на день недели
	rulesByWeekday := make(map[time.Weekday][]*domain.AvailabilityRule, 7)
	result := make([]domain.DaySlots, 0, days)

	for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
		weekday := date.Weekday()
		rules, ok := rulesByWeekday[weekday]
		if !ok {
			rules, err = uc.ruleProvider.ListActiveByWeekday(ctx, int(weekday))
			if err != nil {
				uc.logger.Error("GetAvailableSlots: failed to get rules for weekday=%d: %v", weekday, err)
				return nil, fmt.Errorf("%w: failed to get rules: %w", ErrInternal, err)
			}
			rulesByWeekday[weekday] = rules
		}

		result = append(result, domain.DaySlots{
			Date:  date,
			Slots: generateSlots(date, rules, byDate[date.Format(domain.DateFormat)], now),
		})
	}

	uc.logger.Info("GetAvailableSlots: generated %d days from %s to %s",
		len(result), from.Format(domain.DateFormat), to.Format(domain.DateFormat))

	return &Response{
		From: from,
		To:   to,
		Days: result,
	}, nil
}
