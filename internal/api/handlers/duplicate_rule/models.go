package duplicate_rule

import (
	"errors"
	"io"
	"net/http"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"
)

// DuplicateRuleRequest HTTP request model. Тело необязательно.
type DuplicateRuleRequest struct {
	Weekday             *int    `json:"weekday,omitempty"`
	StartTime           *string `json:"startTime,omitempty"`
	EndTime             *string `json:"endTime,omitempty"`
	SlotDurationMinutes *int    `json:"slotDurationMinutes,omitempty"`
	MaxParallel         *int    `json:"maxParallel,omitempty"`
	IsActive            *bool   `json:"isActive,omitempty"`
}

// decodeOptional читает тело, если оно передано
func decodeOptional(r *http.Request, dst *DuplicateRuleRequest) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := handlers.DecodeJSON(r, dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *DuplicateRuleRequest) ToServiceRequest(userID int64) *models.DuplicateRuleRequest {
	return &models.DuplicateRuleRequest{
		UserID: userID,
		Overrides: models.RulePatch{
			Weekday:             r.Weekday,
			StartTime:           r.StartTime,
			EndTime:             r.EndTime,
			SlotDurationMinutes: r.SlotDurationMinutes,
			MaxParallel:         r.MaxParallel,
			IsActive:            r.IsActive,
		},
	}
}
