package domain

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// LogAction kind of a rule mutation recorded in the audit log
type LogAction string

const (
	LogActionCreate     LogAction = "create"
	LogActionUpdate     LogAction = "update"
	LogActionActivate   LogAction = "activate"
	LogActionDeactivate LogAction = "deactivate"
	LogActionDelete     LogAction = "delete"
)

// IsValid returns true for a known action
func (a LogAction) IsValid() bool {
	switch a {
	case LogActionCreate, LogActionUpdate, LogActionActivate, LogActionDeactivate, LogActionDelete:
		return true
	}
	return false
}

// AvailabilityLogEntry append-only snapshot of a rule at the moment of a mutation
type AvailabilityLogEntry struct {
	ID                  int64
	RuleID              int64
	Action              LogAction
	Weekday             int
	StartTime           types.TimeString
	EndTime             types.TimeString
	SlotDurationMinutes int
	MaxParallel         int
	IsActive            bool
	ActorID             *int64 // nil, если пользователь неизвестен
	CreatedAt           time.Time
}

// NewLogEntry builds a log entry from the rule state
func NewLogEntry(rule *AvailabilityRule, action LogAction, actorID *int64) *AvailabilityLogEntry {
	return &AvailabilityLogEntry{
		RuleID:              rule.ID,
		Action:              action,
		Weekday:             rule.Weekday,
		StartTime:           rule.StartTime,
		EndTime:             rule.EndTime,
		SlotDurationMinutes: rule.SlotDurationMinutes,
		MaxParallel:         rule.MaxParallel,
		IsActive:            rule.IsActive,
		ActorID:             actorID,
	}
}

// LogSortField поле сортировки журнала
type LogSortField string

const (
	LogSortByTimestamp LogSortField = "timestamp"
	LogSortByAction    LogSortField = "action"
	LogSortByWeekday   LogSortField = "weekday"
)

// IsValid returns true for a known sort field
func (f LogSortField) IsValid() bool {
	switch f {
	case LogSortByTimestamp, LogSortByAction, LogSortByWeekday:
		return true
	}
	return false
}

// LogFilter фильтр и сортировка журнала изменений правил
type LogFilter struct {
	RuleID     *int64
	Action     *LogAction
	SortBy     LogSortField
	Descending bool
	Limit      int
	Offset     int
}
