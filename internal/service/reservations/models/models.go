package models

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// ConfirmRequest запрос на подтверждение удержания созданной консультацией
type ConfirmRequest struct {
	UserID         int64 `json:"-"`
	ConsultationID int64 `json:"consultationId"`
}

// ReservationResponse удержание слота
type ReservationResponse struct {
	ID             string    `json:"id"`
	RuleID         int64     `json:"ruleId"`
	SlotStart      time.Time `json:"slotStart"`
	SlotEnd        time.Time `json:"slotEnd"`
	Status         string    `json:"status"`
	ConsultationID *int64    `json:"consultationId,omitempty"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// FromDomainReservation конвертирует domain модель в DTO
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	if r == nil {
		return nil
	}

	return &ReservationResponse{
		ID:             r.ID.String(),
		RuleID:         r.RuleID,
		SlotStart:      r.SlotStart,
		SlotEnd:        r.SlotEnd,
		Status:         string(r.Status),
		ConsultationID: r.ConsultationID,
		ExpiresAt:      r.ExpiresAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
