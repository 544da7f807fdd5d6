package domain

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// AvailabilityRule represents a weekly recurring window during which consultations can be booked
type AvailabilityRule struct {
	ID                  int64
	Weekday             int // 0..6, Sunday = 0
	StartTime           types.TimeString
	EndTime             types.TimeString
	SlotDurationMinutes int
	MaxParallel         int // сколько консультаций одновременно вмещает один слот
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RuleFilter фильтр для списка правил
type RuleFilter struct {
	Weekday *int  // nil - все дни недели
	Active  *bool // nil - активные и неактивные
}

// SlotBounds boundaries of one concrete slot instance
type SlotBounds struct {
	Start time.Time
	End   time.Time
}

// Clone returns a copy of the rule
func (r *AvailabilityRule) Clone() *AvailabilityRule {
	c := *r
	return &c
}

// Overlaps reports whether two rules share any instant on the same weekday (half-open intervals)
func (r *AvailabilityRule) Overlaps(other *AvailabilityRule) bool {
	if r.Weekday != other.Weekday {
		return false
	}
	return r.StartTime.Minutes() < other.EndTime.Minutes() &&
		other.StartTime.Minutes() < r.EndTime.Minutes()
}

// WindowMinutes returns the length of the rule window
func (r *AvailabilityRule) WindowMinutes() int {
	return r.EndTime.Minutes() - r.StartTime.Minutes()
}

// HasRemainder returns true if the window is not an exact multiple of the slot duration
func (r *AvailabilityRule) HasRemainder() bool {
	if r.SlotDurationMinutes <= 0 {
		return false
	}
	return r.WindowMinutes()%r.SlotDurationMinutes != 0
}

// SlotCount returns the number of whole slots that fit into the window
func (r *AvailabilityRule) SlotCount() int {
	if r.SlotDurationMinutes <= 0 || r.WindowMinutes() <= 0 {
		return 0
	}
	return r.WindowMinutes() / r.SlotDurationMinutes
}

// AppliesTo returns true if the rule's weekday matches the date
func (r *AvailabilityRule) AppliesTo(date time.Time) bool {
	return int(date.Weekday()) == r.Weekday
}

// SlotBoundsOn walks the window in steps of the slot duration on the given date.
// A trailing step shorter than the duration is not emitted.
// Arithmetic is wall-clock in the date's location.
func (r *AvailabilityRule) SlotBoundsOn(date time.Time) []SlotBounds {
	count := r.SlotCount()
	if count == 0 {
		return nil
	}

	start := r.StartTime.Minutes()
	bounds := make([]SlotBounds, 0, count)
	for i := 0; i < count; i++ {
		from := start + i*r.SlotDurationMinutes
		bounds = append(bounds, SlotBounds{
			Start: wallClock(date, from),
			End:   wallClock(date, from+r.SlotDurationMinutes),
		})
	}
	return bounds
}

// SlotAt returns the slot that starts exactly at t, if t is a slot boundary of this rule
func (r *AvailabilityRule) SlotAt(t time.Time) (SlotBounds, bool) {
	if !r.AppliesTo(t) || t.Second() != 0 || t.Nanosecond() != 0 {
		return SlotBounds{}, false
	}

	minute := t.Hour()*60 + t.Minute()
	start := r.StartTime.Minutes()
	if r.SlotDurationMinutes <= 0 || minute < start {
		return SlotBounds{}, false
	}

	offset := minute - start
	if offset%r.SlotDurationMinutes != 0 || offset/r.SlotDurationMinutes >= r.SlotCount() {
		return SlotBounds{}, false
	}

	return SlotBounds{
		Start: wallClock(t, minute),
		End:   wallClock(t, minute+r.SlotDurationMinutes),
	}, true
}

// wallClock returns the moment `minutes` after local midnight of date
func wallClock(date time.Time, minutes int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, date.Location())
}
