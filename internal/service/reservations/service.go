package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	consultationRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/consultation"
	reservationRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations/models"
)

// Service жизненный цикл удержаний: подтверждение, откат и освобождение просроченных
type Service struct {
	reservationRepo  ReservationRepository
	consultationRepo ConsultationRepository
	txManager        TransactionManager
	metrics          Metrics
	timeProvider     TimeProvider
	logger           Logger
}

// NewService создает новый экземпляр сервиса удержаний
func NewService(
	reservationRepo ReservationRepository,
	consultationRepo ConsultationRepository,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo:  reservationRepo,
		consultationRepo: consultationRepo,
		txManager:        txManager,
		metrics:          metrics,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Confirm привязывает удержание к созданной консультации.
// Повторное подтверждение той же консультацией возвращает удержание без изменений.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, req *models.ConfirmRequest) (*models.ReservationResponse, error) {
	s.logger.Info("Confirm: reservation=%s consultation=%d by user=%d", id, req.ConsultationID, req.UserID)

	if req.ConsultationID <= 0 {
		return nil, fmt.Errorf("%w: consultationId must be positive", ErrInvalidInput)
	}

	var result *domain.Reservation
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Читаем удержание с блокировкой
		res, err := s.getForUpdate(txCtx, "Confirm", id)
		if err != nil {
			return err
		}
		if err := checkOwner(res, req.UserID); err != nil {
			return err
		}

		// 2. Повторное подтверждение
		if res.Status == domain.ReservationConfirmed && res.ConsultationID != nil && *res.ConsultationID == req.ConsultationID {
			result = res
			return nil
		}

		now := s.timeProvider.Now()
		if !res.IsHeld(now) {
			return fmt.Errorf("%w: reservation %s is %s", ErrNotHeld, id, statusAt(res, now))
		}

		// 3. Консультация должна занимать именно этот слот
		consultation, err := s.consultationRepo.GetByID(txCtx, req.ConsultationID)
		if err != nil {
			if errors.Is(err, consultationRepo.ErrConsultationNotFound) {
				return domain.NewNotFoundError(domain.ResourceConsult, req.ConsultationID)
			}
			return fmt.Errorf("%w: Confirm - get consultation: %w", ErrInternal, err)
		}
		if !consultation.IsActive() || !consultation.ScheduledAt.Equal(res.SlotStart) {
			return fmt.Errorf("%w: consultation %d is %s at %s, slot starts at %s", ErrConsultationMismatch,
				consultation.ID, consultation.Status, consultation.ScheduledAt, res.SlotStart)
		}
		if consultation.ReservationID != nil && *consultation.ReservationID != id {
			return fmt.Errorf("%w: consultation %d was booked for reservation %s", ErrConsultationMismatch,
				consultation.ID, *consultation.ReservationID)
		}
		linked, err := s.reservationRepo.CountByConsultation(txCtx, req.ConsultationID, id)
		if err != nil {
			return fmt.Errorf("%w: Confirm - count linked reservations: %w", ErrInternal, err)
		}
		if linked > 0 {
			return fmt.Errorf("%w: consultation %d already confirms another reservation", ErrConsultationMismatch,
				consultation.ID)
		}

		// 4. Подтверждаем
		if err := s.reservationRepo.UpdateStatus(txCtx, id, domain.ReservationConfirmed, &req.ConsultationID); err != nil {
			return s.wrapRepoError("Confirm", id, err)
		}

		res.Status = domain.ReservationConfirmed
		res.ConsultationID = &req.ConsultationID
		result = res
		return nil
	})
	if err != nil {
		return nil, s.handleTxError("Confirm", err)
	}

	s.logger.Info("Confirm: reservation=%s confirmed", id)
	return models.FromDomainReservation(result), nil
}

// Release освобождает место: откат удержания, если бронирование не состоялось.
// Освобождение уже освобожденного удержания ничего не делает.
func (s *Service) Release(ctx context.Context, id uuid.UUID, userID int64) (*models.ReservationResponse, error) {
	s.logger.Info("Release: reservation=%s by user=%d", id, userID)

	var result *domain.Reservation
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		res, err := s.getForUpdate(txCtx, "Release", id)
		if err != nil {
			return err
		}
		if err := checkOwner(res, userID); err != nil {
			return err
		}

		if res.Status == domain.ReservationReleased {
			result = res
			return nil
		}

		if err := s.reservationRepo.UpdateStatus(txCtx, id, domain.ReservationReleased, nil); err != nil {
			return s.wrapRepoError("Release", id, err)
		}

		res.Status = domain.ReservationReleased
		result = res
		return nil
	})
	if err != nil {
		return nil, s.handleTxError("Release", err)
	}

	s.logger.Info("Release: reservation=%s released", id)
	return models.FromDomainReservation(result), nil
}

// ExpireHolds освобождает все удержания с истекшим сроком
func (s *Service) ExpireHolds(ctx context.Context) (int64, error) {
	released, err := s.reservationRepo.ReleaseExpired(ctx, s.timeProvider.Now())
	if err != nil {
		s.logger.Error("ExpireHolds: repository error: %v", err)
		return 0, fmt.Errorf("%w: ExpireHolds - repository error: %w", ErrInternal, err)
	}

	if released > 0 {
		s.metrics.AddHoldsExpired(released)
		s.logger.Info("ExpireHolds: released %d expired holds", released)
	}

	return released, nil
}

func (s *Service) getForUpdate(txCtx context.Context, op string, id uuid.UUID) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(txCtx, id)
	if err != nil {
		return nil, s.wrapRepoError(op, id, err)
	}
	return res, nil
}

func (s *Service) wrapRepoError(op string, id uuid.UUID, err error) error {
	if errors.Is(err, reservationRepo.ErrReservationNotFound) {
		return domain.NewNotFoundError(domain.ResourceReservation, id)
	}
	return fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
}

// handleTxError пропускает доменные ошибки как есть и логирует инфраструктурные
func (s *Service) handleTxError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, ErrNotHeld),
		errors.Is(err, ErrConsultationMismatch),
		errors.Is(err, ErrAccessDenied):
		s.logger.Warn("%s: rejected: %v", op, err)
		return err
	case errors.Is(err, ErrInternal):
		s.logger.Error("%s: %v", op, err)
		return err
	default:
		s.logger.Error("%s: transaction error: %v", op, err)
		return fmt.Errorf("%w: %s - transaction error: %w", ErrInternal, op, err)
	}
}

// checkOwner удержание, созданное пользователем, меняет только он сам
func checkOwner(res *domain.Reservation, userID int64) error {
	if res.UserID != nil && *res.UserID != userID {
		return fmt.Errorf("%w: reservation %s belongs to another user", ErrAccessDenied, res.ID)
	}
	return nil
}

// statusAt статус удержания с учетом истечения срока
func statusAt(res *domain.Reservation, now time.Time) string {
	if res.IsExpired(now) {
		return "expired"
	}
	return string(res.Status)
}
