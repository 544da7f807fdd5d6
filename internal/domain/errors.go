package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation базовая ошибка валидации входных данных
	ErrValidation = errors.New("validation error")

	// ErrConflict правило пересекается с другим активным правилом
	ErrConflict = errors.New("rule conflict")

	// ErrNotFound запрошенная сущность не найдена
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded в слоте не осталось свободных мест
	ErrCapacityExceeded = errors.New("slot capacity exceeded")

	// ErrRuleInactive правило, породившее слот, выключено
	ErrRuleInactive = errors.New("rule is inactive")
)

// ValidationKind kind of a validation failure
type ValidationKind string

const (
	KindTimeInvalid      ValidationKind = "TIME_INVALID"
	KindTimeRangeInvalid ValidationKind = "TIME_RANGE_INVALID"
	KindRangeTooLarge    ValidationKind = "RANGE_TOO_LARGE"
	KindWeekdayInvalid   ValidationKind = "WEEKDAY_INVALID"
	KindDurationInvalid  ValidationKind = "DURATION_INVALID"
	KindCapacityInvalid  ValidationKind = "CAPACITY_INVALID"
	KindWindowRemainder  ValidationKind = "WINDOW_REMAINDER"
	KindSlotMisaligned   ValidationKind = "SLOT_MISALIGNED"
	KindSlotInPast       ValidationKind = "SLOT_IN_PAST"
	KindInputInvalid     ValidationKind = "INPUT_INVALID"
)

// ValidationError recoverable input error with a machine-readable kind
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

// NewValidationError creates a validation error
func NewValidationError(kind ValidationKind, field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConflictError carries the rule that the candidate overlaps
type ConflictError struct {
	ConflictingRule AvailabilityRule
}

func (e *ConflictError) Error() string {
	r := e.ConflictingRule
	return fmt.Sprintf("rule overlaps with rule id=%d (weekday=%d %s-%s)", r.ID, r.Weekday, r.StartTime, r.EndTime)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NotFoundError entity with the given id does not exist
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a not found error for an id of any printable type
func NewNotFoundError(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// CapacityExceededError the specific slot is full.
// Taken и Capacity нулевые, если отказ вызван повторным конфликтом сериализации.
type CapacityExceededError struct {
	RuleID    int64
	SlotStart time.Time
	Taken     int
	Capacity  int
}

func (e *CapacityExceededError) Error() string {
	if e.Capacity == 0 {
		return fmt.Sprintf("slot %s of rule %d is full", e.SlotStart.Format(time.RFC3339), e.RuleID)
	}
	return fmt.Sprintf("slot %s of rule %d is full (%d/%d)",
		e.SlotStart.Format(time.RFC3339), e.RuleID, e.Taken, e.Capacity)
}

func (e *CapacityExceededError) Unwrap() error {
	return ErrCapacityExceeded
}

// RuleInactiveError the rule that generated the slot has been deactivated
type RuleInactiveError struct {
	RuleID int64
}

func (e *RuleInactiveError) Error() string {
	return fmt.Sprintf("rule %d is inactive", e.RuleID)
}

func (e *RuleInactiveError) Unwrap() error {
	return ErrRuleInactive
}
