package reserve_slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	ruleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/rule"
	"github.com/m04kA/SMC-AvailabilityService/pkg/txmanager"
)

// UseCase use case допуска бронирования: резервирует одно место в слоте.
// Два конкурирующих вызова не могут оба занять последнее место.
type UseCase struct {
	ruleRepo         RuleRepository
	consultationRepo ConsultationRepository
	reservationRepo  ReservationRepository
	txManager        TransactionManager
	metrics          Metrics
	timeProvider     TimeProvider
	cfg              Config
	logger           Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	ruleRepo RuleRepository,
	consultationRepo ConsultationRepository,
	reservationRepo ReservationRepository,
	txManager TransactionManager,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = domain.DefaultHoldTTLMinutes * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &UseCase{
		ruleRepo:         ruleRepo,
		consultationRepo: consultationRepo,
		reservationRepo:  reservationRepo,
		txManager:        txManager,
		metrics:          metrics,
		timeProvider:     &RealTimeProvider{},
		cfg:              cfg,
		logger:           logger,
	}
}

// Execute выполняет use case допуска.
// Чтение правила, подсчет занятости и запись удержания выполняются в одной SERIALIZABLE транзакции.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ReserveSlot: user=%d, rule=%d, slot=%s",
		req.UserID, req.RuleID, req.SlotStart.Format(time.RFC3339))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ReserveSlot: validation failed: %v", err)
		uc.metrics.ObserveAdmission(OutcomeInvalid)
		return nil, err
	}

	// 2. Получаем текущее время
	now := uc.timeProvider.Now()
	if !req.SlotStart.After(now) {
		uc.logger.Warn("ReserveSlot: slot %s is not in the future", req.SlotStart.Format(time.RFC3339))
		uc.metrics.ObserveAdmission(OutcomeInvalid)
		return nil, domain.NewValidationError(domain.KindSlotInPast, "slotStart",
			"slot %s has already started", req.SlotStart.Format(time.RFC3339))
	}

	// 3. Ограничиваем длительность транзакции вместе с повтором
	if uc.cfg.TxTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.TxTimeout)
		defer cancel()
	}

	var result *Response

	// 4. Выполняем допуск в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 4.1. Перечитываем правило с блокировкой строки
		rule, err := uc.ruleRepo.GetByID(txCtx, req.RuleID)
		if err != nil {
			if errors.Is(err, ruleRepo.ErrRuleNotFound) {
				return domain.NewNotFoundError(domain.ResourceRule, req.RuleID)
			}
			return fmt.Errorf("%w: failed to get rule: %w", ErrInternal, err)
		}

		// 4.2. Выключенное правило не принимает бронирования
		if !rule.IsActive {
			return &domain.RuleInactiveError{RuleID: rule.ID}
		}

		// 4.3. Слот должен быть границей шага правила
		bounds, ok := rule.SlotAt(req.SlotStart.In(uc.cfg.Location))
		if !ok {
			return domain.NewValidationError(domain.KindSlotMisaligned, "slotStart",
				"%s is not a slot start of rule %d (%s %s-%s every %d min)",
				req.SlotStart.Format(time.RFC3339), rule.ID, time.Weekday(rule.Weekday),
				rule.StartTime, rule.EndTime, rule.SlotDurationMinutes)
		}

		// 4.4. Считаем занятость: консультации и действующие удержания без консультации
		booked, err := uc.consultationRepo.CountActiveAt(txCtx, bounds.Start)
		if err != nil {
			return fmt.Errorf("%w: failed to count consultations: %w", ErrInternal, err)
		}
		held, err := uc.reservationRepo.CountHeld(txCtx, rule.ID, bounds.Start, now)
		if err != nil {
			return fmt.Errorf("%w: failed to count holds: %w", ErrInternal, err)
		}

		taken := booked + held
		if taken+1 > rule.MaxParallel {
			return &domain.CapacityExceededError{
				RuleID:    rule.ID,
				SlotStart: bounds.Start,
				Taken:     taken,
				Capacity:  rule.MaxParallel,
			}
		}

		// 4.5. Записываем удержание
		var userID *int64
		if req.UserID > 0 {
			userID = &req.UserID
		}

		created, err := uc.reservationRepo.Create(txCtx, &domain.Reservation{
			ID:        uuid.New(),
			RuleID:    rule.ID,
			SlotStart: bounds.Start,
			SlotEnd:   bounds.End,
			Status:    domain.ReservationHeld,
			UserID:    userID,
			ExpiresAt: now.Add(uc.cfg.HoldTTL),
		})
		if err != nil {
			return fmt.Errorf("%w: failed to create reservation: %w", ErrInternal, err)
		}

		result = &Response{
			ReservationID: created.ID,
			RuleID:        created.RuleID,
			SlotStart:     created.SlotStart,
			SlotEnd:       created.SlotEnd,
			Status:        created.Status,
			ExpiresAt:     created.ExpiresAt,
			Taken:         taken + 1,
			Capacity:      rule.MaxParallel,
		}
		return nil
	})
	if err != nil {
		return nil, uc.handleError(req, err)
	}

	uc.metrics.ObserveAdmission(OutcomeReserved)
	uc.logger.Info("ReserveSlot: reservation %s holds slot %s of rule=%d (%d/%d)",
		result.ReservationID, result.SlotStart.Format(time.RFC3339), result.RuleID, result.Taken, result.Capacity)

	return result, nil
}

// handleError переводит ошибку транзакции в исход допуска
func (uc *UseCase) handleError(req *Request, err error) error {
	var capacityErr *domain.CapacityExceededError

	switch {
	case errors.As(err, &capacityErr):
		uc.logger.Warn("ReserveSlot: %v", err)
		uc.metrics.ObserveAdmission(OutcomeCapacityExceeded)
		return err
	case errors.Is(err, domain.ErrRuleInactive):
		uc.logger.Warn("ReserveSlot: %v", err)
		uc.metrics.ObserveAdmission(OutcomeRuleInactive)
		return err
	case errors.Is(err, domain.ErrNotFound):
		uc.logger.Warn("ReserveSlot: %v", err)
		uc.metrics.ObserveAdmission(OutcomeNotFound)
		return err
	case errors.Is(err, domain.ErrValidation):
		uc.logger.Warn("ReserveSlot: %v", err)
		uc.metrics.ObserveAdmission(OutcomeInvalid)
		return err
	case errors.Is(err, txmanager.ErrSerialization):
		// Повтор тоже проиграл конкуренту: считаем слот занятым
		uc.logger.Warn("ReserveSlot: serialization conflict persisted for rule=%d slot=%s: %v",
			req.RuleID, req.SlotStart.Format(time.RFC3339), err)
		uc.metrics.ObserveAdmission(OutcomeContention)
		return &domain.CapacityExceededError{RuleID: req.RuleID, SlotStart: req.SlotStart}
	case errors.Is(err, context.DeadlineExceeded):
		uc.logger.Error("ReserveSlot: transaction exceeded %s: %v", uc.cfg.TxTimeout, err)
		uc.metrics.ObserveAdmission(OutcomeTimeout)
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, ErrInternal):
		uc.logger.Error("ReserveSlot: %v", err)
		uc.metrics.ObserveAdmission(OutcomeError)
		return err
	default:
		uc.logger.Error("ReserveSlot: transaction error: %v", err)
		uc.metrics.ObserveAdmission(OutcomeError)
		return fmt.Errorf("%w: transaction error: %w", ErrInternal, err)
	}
}
