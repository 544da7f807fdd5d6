package reserve_slot

import (
	"errors"
	"net/http"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	reserveSlot "github.com/m04kA/SMC-AvailabilityService/internal/usecase/reserve_slot"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidSlot        = "некорректный слот"
	msgRuleNotFound       = "правило не найдено"
	msgRuleInactive       = "правило выключено, слот недоступен"
	msgSlotFull           = "в слоте нет свободных мест"
	msgTimeout            = "сервис перегружен, повторите запрос позже"
	msgMissingUserID      = "отсутствует ID пользователя"
)

type Handler struct {
	useCase ReserveSlotUseCase
	logger  Logger
}

func NewHandler(useCase ReserveSlotUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req ReserveSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(userID))
	if err != nil {
		var validationErr *domain.ValidationError
		var capacityErr *domain.CapacityExceededError

		switch {
		case errors.As(err, &validationErr):
			h.logger.Warn("POST /reservations - Validation failed: rule_id=%d, %v", req.RuleID, err)
			handlers.RespondValidationError(w, msgInvalidSlot, validationErr)

		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("POST /reservations - Rule not found: rule_id=%d", req.RuleID)
			handlers.RespondNotFound(w, msgRuleNotFound)

		case errors.Is(err, domain.ErrRuleInactive):
			h.logger.Warn("POST /reservations - Rule inactive: rule_id=%d", req.RuleID)
			handlers.RespondConflict(w, msgRuleInactive)

		case errors.As(err, &capacityErr):
			h.logger.Warn("POST /reservations - Slot full: rule_id=%d, slot_start=%s, taken=%d, capacity=%d",
				req.RuleID, req.SlotStart.Format(time.RFC3339), capacityErr.Taken, capacityErr.Capacity)
			handlers.RespondCapacityExceeded(w, msgSlotFull, capacityErr)

		case errors.Is(err, reserveSlot.ErrTimeout):
			h.logger.Warn("POST /reservations - Admission timed out: rule_id=%d", req.RuleID)
			handlers.RespondError(w, http.StatusServiceUnavailable, msgTimeout)

		default:
			h.logger.Error("POST /reservations - Failed to reserve slot: rule_id=%d, error=%v", req.RuleID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations - Slot reserved: reservation_id=%s, rule_id=%d, user_id=%d, taken=%d/%d",
		result.ReservationID, result.RuleID, userID, result.Taken, result.Capacity)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
