package create_rule

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidRule        = "некорректные параметры правила"
	msgConflict           = "правило пересекается с существующим активным правилом"
	msgConcurrent         = "правила этого дня изменены параллельно, повторите запрос"
	msgMissingUserID      = "отсутствует ID пользователя"
)

type Handler struct {
	service RuleService
	logger  Logger
}

func NewHandler(service RuleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/availability/rules
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /availability/rules - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateRuleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /availability/rules - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Create(r.Context(), req.ToServiceRequest(userID))
	if err != nil {
		var validationErr *domain.ValidationError
		var conflictErr *domain.ConflictError

		switch {
		case errors.As(err, &validationErr):
			h.logger.Warn("POST /availability/rules - Validation failed: %v", err)
			handlers.RespondValidationError(w, msgInvalidRule, validationErr)

		case errors.As(err, &conflictErr):
			h.logger.Warn("POST /availability/rules - Conflict: %v", err)
			handlers.RespondRuleConflict(w, msgConflict, conflictErr)

		case errors.Is(err, rules.ErrConcurrentModification):
			h.logger.Warn("POST /availability/rules - Concurrent modification: %v", err)
			handlers.RespondConflict(w, msgConcurrent)

		default:
			h.logger.Error("POST /availability/rules - Failed to create rule: user_id=%d, error=%v", userID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /availability/rules - Rule created successfully: rule_id=%d, user_id=%d", result.ID, userID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
