package duplicate_rule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules"
)

const (
	msgInvalidRuleID      = "некорректный ID правила"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidRule        = "некорректные параметры копии правила"
	msgNotFound           = "правило не найдено"
	msgConflict           = "копия правила пересекается с существующим активным правилом"
	msgConcurrent         = "правила изменены параллельно, повторите запрос"
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

// Handle POST /api/v1/availability/rules/{ruleId}/duplicate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ruleID, err := strconv.ParseInt(mux.Vars(r)["ruleId"], 10, 64)
	if err != nil || ruleID <= 0 {
		h.logger.Warn("POST /availability/rules/{id}/duplicate - Invalid rule ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRuleID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /availability/rules/{id}/duplicate - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req DuplicateRuleRequest
	if err := decodeOptional(r, &req); err != nil {
		h.logger.Warn("POST /availability/rules/{id}/duplicate - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Duplicate(r.Context(), ruleID, req.ToServiceRequest(userID))
	if err != nil {
		var validationErr *domain.ValidationError
		var conflictErr *domain.ConflictError

		switch {
		case errors.As(err, &validationErr):
			h.logger.Warn("POST /availability/rules/{id}/duplicate - Validation failed: rule_id=%d, %v", ruleID, err)
			handlers.RespondValidationError(w, msgInvalidRule, validationErr)

		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("POST /availability/rules/{id}/duplicate - Rule not found: rule_id=%d", ruleID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.As(err, &conflictErr):
			h.logger.Warn("POST /availability/rules/{id}/duplicate - Conflict: rule_id=%d, %v", ruleID, err)
			handlers.RespondRuleConflict(w, msgConflict, conflictErr)

		case errors.Is(err, rules.ErrConcurrentModification):
			h.logger.Warn("POST /availability/rules/{id}/duplicate - Concurrent modification: rule_id=%d", ruleID)
			handlers.RespondConflict(w, msgConcurrent)

		default:
			h.logger.Error("POST /availability/rules/{id}/duplicate - Failed to duplicate rule: rule_id=%d, error=%v", ruleID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /availability/rules/{id}/duplicate - Rule id=%d duplicated as id=%d (active=%t)",
		ruleID, result.ID, result.IsActive)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
