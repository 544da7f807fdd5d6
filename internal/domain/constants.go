package domain

// Business validation constants
const (
	MinWeekday             = 0
	MaxWeekday             = 6
	MinSlotDurationMinutes = 5
	MaxSlotDurationMinutes = 480 // 8 hours
	MinMaxParallel         = 1
	MaxMaxParallel         = 100
)

// Defaults
const (
	DefaultMaxRangeDays   = 62
	DefaultHoldTTLMinutes = 15
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Resource names used in NotFoundError
const (
	ResourceRule        = "availability_rule"
	ResourceReservation = "reservation"
	ResourceConsult     = "consultation"
)
