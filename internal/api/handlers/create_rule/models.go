package create_rule

import "github.com/m04kA/SMC-AvailabilityService/internal/service/rules/models"

// CreateRuleRequest HTTP request model
type CreateRuleRequest struct {
	Weekday             int    `json:"weekday"`   // 0..6, воскресенье = 0
	StartTime           string `json:"startTime"` // "09:00"
	EndTime             string `json:"endTime"`   // "12:00"
	SlotDurationMinutes int    `json:"slotDurationMinutes"`
	MaxParallel         int    `json:"maxParallel"`
	IsActive            *bool  `json:"isActive,omitempty"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CreateRuleRequest) ToServiceRequest(userID int64) *models.CreateRuleRequest {
	return &models.CreateRuleRequest{
		UserID:              userID,
		Weekday:             r.Weekday,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		SlotDurationMinutes: r.SlotDurationMinutes,
		MaxParallel:         r.MaxParallel,
		IsActive:            r.IsActive,
	}
}
