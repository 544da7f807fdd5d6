package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus represents the state of a slot hold
type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "held"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationReleased  ReservationStatus = "released"
)

// Reservation one unit of slot capacity taken by admission before a consultation is persisted
type Reservation struct {
	ID             uuid.UUID
	RuleID         int64
	SlotStart      time.Time
	SlotEnd        time.Time
	Status         ReservationStatus
	UserID         *int64
	ConsultationID *int64
	ExpiresAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsHeld returns true if the hold still occupies capacity at the given moment
func (r *Reservation) IsHeld(now time.Time) bool {
	return r.Status == ReservationHeld && now.Before(r.ExpiresAt)
}

// IsExpired returns true for a hold whose TTL has passed
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == ReservationHeld && !now.Before(r.ExpiresAt)
}
