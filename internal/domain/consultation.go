package domain

import (
	"time"

	"github.com/google/uuid"
)

// ConsultationStatus represents the status of a consultation
type ConsultationStatus string

const (
	ConsultationScheduled ConsultationStatus = "scheduled"
	ConsultationCompleted ConsultationStatus = "completed"
	ConsultationCanceled  ConsultationStatus = "canceled"
)

// Consultation booked consultation, owned by the booking subsystem.
// The availability engine only reads it.
type Consultation struct {
	ID              int64
	UserID          int64
	ScheduledAt     time.Time
	DurationMinutes int
	Status          ConsultationStatus
	ReservationID   *uuid.UUID // удержание слота, через которое создана консультация
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive returns true if the consultation occupies capacity
func (c *Consultation) IsActive() bool {
	return c.Status != ConsultationCanceled
}
