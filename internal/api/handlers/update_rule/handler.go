package update_rule

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
	msgEmptyPatch         = "не передано ни одного поля для изменения"
	msgInvalidRule        = "некорректные параметры правила"
	msgNotFound           = "правило не найдено"
	msgConflict           = "правило пересекается с существующим активным правилом"
	msgConcurrent         = "правило изменено параллельно, повторите запрос"
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

// Handle PATCH /api/v1/availability/rules/{ruleId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ruleID, err := strconv.ParseInt(mux.Vars(r)["ruleId"], 10, 64)
	if err != nil || ruleID <= 0 {
		h.logger.Warn("PATCH /availability/rules/{id} - Invalid rule ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRuleID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /availability/rules/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req UpdateRuleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /availability/rules/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Update(r.Context(), ruleID, req.ToServiceRequest(userID))
	if err != nil {
		var validationErr *domain.ValidationError
		var conflictErr *domain.ConflictError

		switch {
		case errors.As(err, &validationErr):
			h.logger.Warn("PATCH /availability/rules/{id} - Validation failed: rule_id=%d, %v", ruleID, err)
			handlers.RespondValidationError(w, msgInvalidRule, validationErr)

		case errors.Is(err, rules.ErrInvalidInput):
			h.logger.Warn("PATCH /availability/rules/{id} - Empty patch: rule_id=%d", ruleID)
			handlers.RespondBadRequest(w, msgEmptyPatch)

		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("PATCH /availability/rules/{id} - Rule not found: rule_id=%d", ruleID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.As(err, &conflictErr):
			h.logger.Warn("PATCH /availability/rules/{id} - Conflict: rule_id=%d, %v", ruleID, err)
			handlers.RespondRuleConflict(w, msgConflict, conflictErr)

		case errors.Is(err, rules.ErrConcurrentModification):
			h.logger.Warn("PATCH /availability/rules/{id} - Concurrent modification: rule_id=%d", ruleID)
			handlers.RespondConflict(w, msgConcurrent)

		default:
			h.logger.Error("PATCH /availability/rules/{id} - Failed to update rule: rule_id=%d, error=%v", ruleID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /availability/rules/{id} - Rule updated successfully: rule_id=%d, user_id=%d", ruleID, userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
