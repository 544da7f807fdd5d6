package reserve_slot

import "errors"

var (
	// ErrTimeout возвращается, когда транзакция допуска не уложилась в отведенное время
	ErrTimeout = errors.New("usecase: admission timed out")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("usecase: internal error")
)

// Исходы допуска для метрик
const (
	OutcomeReserved         = "reserved"
	OutcomeCapacityExceeded = "capacity_exceeded"
	OutcomeRuleInactive     = "rule_inactive"
	OutcomeNotFound         = "not_found"
	OutcomeInvalid          = "invalid"
	OutcomeContention       = "contention"
	OutcomeTimeout          = "timeout"
	OutcomeError            = "error"
)
