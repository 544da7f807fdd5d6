package list_rule_logs

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules"
)

const (
	msgInvalidParams = "некорректные параметры запроса журнала"
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

// Handle GET /api/v1/availability/logs
// Query params: ruleId, action, sort (timestamp|action|weekday), order (asc|desc), limit, offset
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := ToServiceRequest(r.URL.Query())
	if err != nil {
		h.logger.Warn("GET /availability/logs - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.service.ListLogs(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, rules.ErrInvalidInput):
			h.logger.Warn("GET /availability/logs - Invalid filter: %v", err)
			handlers.RespondJSON(w, http.StatusBadRequest, handlers.ErrorResponse{
				Error:   msgInvalidParams,
				Details: err.Error(),
			})

		default:
			h.logger.Error("GET /availability/logs - Failed to list logs: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /availability/logs - Returned %d of %d entries", len(result.Entries), result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
