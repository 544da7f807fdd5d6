package domain

import "time"

// Slot represents one concrete, dated instance of bookable time
type Slot struct {
	RuleID     int64
	Start      time.Time
	End        time.Time
	Capacity   int // max_parallel генерирующего правила
	TakenCount int
	Available  bool
}

// FreeSpots returns how many bookings the slot can still accept
func (s *Slot) FreeSpots() int {
	if s.TakenCount >= s.Capacity {
		return 0
	}
	return s.Capacity - s.TakenCount
}

// DaySlots slots of one calendar date ordered by start
type DaySlots struct {
	Date  time.Time
	Slots []Slot
}
