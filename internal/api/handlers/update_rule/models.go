package update_rule

import "github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"

// UpdateRuleRequest HTTP request model: передаются только изменяемые поля
type UpdateRuleRequest struct {
	Weekday             *int    `json:"weekday,omitempty"`
	StartTime           *string `json:"startTime,omitempty"`
	EndTime             *string `json:"endTime,omitempty"`
	SlotDurationMinutes *int    `json:"slotDurationMinutes,omitempty"`
	MaxParallel         *int    `json:"maxParallel,omitempty"`
	IsActive            *bool   `json:"isActive,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *UpdateRuleRequest) ToServiceRequest(userID int64) *models.UpdateRuleRequest {
	return &models.UpdateRuleRequest{
		UserID: userID,
		RulePatch: models.RulePatch{
			Weekday:             r.Weekday,
			StartTime:           r.StartTime,
			EndTime:             r.EndTime,
			SlotDurationMinutes: r.SlotDurationMinutes,
			MaxParallel:         r.MaxParallel,
			IsActive:            r.IsActive,
		},
	}
}
