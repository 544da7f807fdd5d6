package models

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// Request модели

// CreateRuleRequest запрос на создание правила доступности
type CreateRuleRequest struct {
	UserID              int64  `json:"-"`
	Weekday             int    `json:"weekday"`   // 0..6, воскресенье = 0
	StartTime           string `json:"startTime"` // HH:MM
	EndTime             string `json:"endTime"`   // HH:MM
	SlotDurationMinutes int    `json:"slotDurationMinutes"`
	MaxParallel         int    `json:"maxParallel"`
	IsActive            *bool  `json:"isActive,omitempty"` // по умолчанию true
}

// RulePatch набор необязательных полей правила.
// Переданные поля накладываются на сохраненное правило перед валидацией.
type RulePatch struct {
	Weekday             *int    `json:"weekday,omitempty"`
	StartTime           *string `json:"startTime,omitempty"`
	EndTime             *string `json:"endTime,omitempty"`
	SlotDurationMinutes *int    `json:"slotDurationMinutes,omitempty"`
	MaxParallel         *int    `json:"maxParallel,omitempty"`
	IsActive            *bool   `json:"isActive,omitempty"`
}

// UpdateRuleRequest запрос на частичное обновление правила
type UpdateRuleRequest struct {
	UserID int64 `json:"-"`
	RulePatch
}

// SetActiveRequest запрос на включение или выключение правила
type SetActiveRequest struct {
	UserID int64 `json:"-"`
	Active bool  `json:"active"`
}

// DuplicateRuleRequest запрос на копирование правила.
// Overrides позволяет сразу поменять поля копии, например день недели.
type DuplicateRuleRequest struct {
	UserID    int64     `json:"-"`
	Overrides RulePatch `json:"overrides"`
}

// ListRulesRequest фильтр списка правил
type ListRulesRequest struct {
	Weekday *int
	Active  *bool
}

// ListLogsRequest фильтр, сортировка и страница журнала
type ListLogsRequest struct {
	RuleID *int64
	Action *string
	SortBy string // timestamp | action | weekday
	Order  string // asc | desc
	Limit  int
	Offset int
}

// Response модели

// RuleResponse правило доступности
type RuleResponse struct {
	ID                  int64     `json:"id"`
	Weekday             int       `json:"weekday"`
	StartTime           string    `json:"startTime"`
	EndTime             string    `json:"endTime"`
	SlotDurationMinutes int       `json:"slotDurationMinutes"`
	MaxParallel         int       `json:"maxParallel"`
	IsActive            bool      `json:"isActive"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// RuleListResponse список правил
type RuleListResponse struct {
	Rules []RuleResponse `json:"rules"`
}

// LogEntryResponse запись журнала изменений
type LogEntryResponse struct {
	ID                  int64     `json:"id"`
	RuleID              int64     `json:"ruleId"`
	Action              string    `json:"action"`
	Weekday             int       `json:"weekday"`
	StartTime           string    `json:"startTime"`
	EndTime             string    `json:"endTime"`
	SlotDurationMinutes int       `json:"slotDurationMinutes"`
	MaxParallel         int       `json:"maxParallel"`
	IsActive            bool      `json:"isActive"`
	ActorID             *int64    `json:"actorId,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

// LogListResponse страница журнала
type LogListResponse struct {
	Entries []LogEntryResponse `json:"entries"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
	HasMore bool               `json:"hasMore"`
}

// Методы конвертации

// ToDomainRule конвертирует CreateRuleRequest в domain модель
func (r *CreateRuleRequest) ToDomainRule() *domain.AvailabilityRule {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}

	return &domain.AvailabilityRule{
		Weekday:             r.Weekday,
		StartTime:           types.TimeString(r.StartTime),
		EndTime:             types.TimeString(r.EndTime),
		SlotDurationMinutes: r.SlotDurationMinutes,
		MaxParallel:         r.MaxParallel,
		IsActive:            active,
	}
}

// IsEmpty возвращает true, если ни одно поле не передано
func (p *RulePatch) IsEmpty() bool {
	return p.Weekday == nil && p.StartTime == nil && p.EndTime == nil &&
		p.SlotDurationMinutes == nil && p.MaxParallel == nil && p.IsActive == nil
}

// ApplyToRule применяет переданные поля к правилу
func (p *RulePatch) ApplyToRule(rule *domain.AvailabilityRule) {
	if p.Weekday != nil {
		rule.Weekday = *p.Weekday
	}
	if p.StartTime != nil {
		rule.StartTime = types.TimeString(*p.StartTime)
	}
	if p.EndTime != nil {
		rule.EndTime = types.TimeString(*p.EndTime)
	}
	if p.SlotDurationMinutes != nil {
		rule.SlotDurationMinutes = *p.SlotDurationMinutes
	}
	if p.MaxParallel != nil {
		rule.MaxParallel = *p.MaxParallel
	}
	if p.IsActive != nil {
		rule.IsActive = *p.IsActive
	}
}

// FromDomainRule конвертирует domain модель в DTO
func FromDomainRule(r *domain.AvailabilityRule) *RuleResponse {
	if r == nil {
		return nil
	}

	return &RuleResponse{
		ID:                  r.ID,
		Weekday:             r.Weekday,
		StartTime:           r.StartTime.String(),
		EndTime:             r.EndTime.String(),
		SlotDurationMinutes: r.SlotDurationMinutes,
		MaxParallel:         r.MaxParallel,
		IsActive:            r.IsActive,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

// FromDomainRuleList конвертирует список правил в DTO
func FromDomainRuleList(rules []*domain.AvailabilityRule) *RuleListResponse {
	resp := &RuleListResponse{
		Rules: make([]RuleResponse, 0, len(rules)),
	}
	for _, r := range rules {
		resp.Rules = append(resp.Rules, *FromDomainRule(r))
	}
	return resp
}

// FromDomainLogEntry конвертирует запись журнала в DTO
func FromDomainLogEntry(e *domain.AvailabilityLogEntry) LogEntryResponse {
	return LogEntryResponse{
		ID:                  e.ID,
		RuleID:              e.RuleID,
		Action:              string(e.Action),
		Weekday:             e.Weekday,
		StartTime:           e.StartTime.String(),
		EndTime:             e.EndTime.String(),
		SlotDurationMinutes: e.SlotDurationMinutes,
		MaxParallel:         e.MaxParallel,
		IsActive:            e.IsActive,
		ActorID:             e.ActorID,
		CreatedAt:           e.CreatedAt,
	}
}
