package set_rule_active

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
)

const (
	msgInvalidRuleID      = "некорректный ID правила"
	msgInvalidRequestBody = "некорректное тело запроса, ожидается {\"active\": true|false}"
	msgNotFound           = "правило не найдено"
	msgConflict           = "включенное правило пересекалось бы с другим активным правилом"
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

// Handle PATCH /api/v1/availability/rules/{ruleId}/active
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	ruleID, err := strconv.ParseInt(mux.Vars(r)["ruleId"], 10, 64)
	if err != nil || ruleID <= 0 {
		h.logger.Warn("PATCH /availability/rules/{id}/active - Invalid rule ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRuleID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /availability/rules/{id}/active - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req SetActiveRequest
	if err := handlers.DecodeJSON(r, &req); err != nil || req.Active == nil {
		h.logger.Warn("PATCH /availability/rules/{id}/active - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.SetActive(r.Context(), ruleID, &models.SetActiveRequest{UserID: userID, Active: *req.Active})
	if err != nil {
		var conflictErr *domain.ConflictError

		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("PATCH /availability/rules/{id}/active - Rule not found: rule_id=%d", ruleID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.As(err, &conflictErr):
			h.logger.Warn("PATCH /availability/rules/{id}/active - Conflict: rule_id=%d, %v", ruleID, err)
			handlers.RespondRuleConflict(w, msgConflict, conflictErr)

		case errors.Is(err, rules.ErrConcurrentModification):
			h.logger.Warn("PATCH /availability/rules/{id}/active - Concurrent modification: rule_id=%d", ruleID)
			handlers.RespondConflict(w, msgConcurrent)

		default:
			h.logger.Error("PATCH /availability/rules/{id}/active - Failed to toggle rule: rule_id=%d, error=%v", ruleID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /availability/rules/{id}/active - Rule id=%d is active=%t", ruleID, result.IsActive)
	handlers.RespondJSON(w, http.StatusOK, result)
}
