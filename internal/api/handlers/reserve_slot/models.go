package reserve_slot

import (
	"time"

	reserveSlot "github.com/m04kA/SMC-AvailabilityService/internal/usecase/reserve_slot"
)

// ReserveSlotRequest HTTP request model
type ReserveSlotRequest struct {
	RuleID    int64     `json:"ruleId"`
	SlotStart time.Time `json:"slotStart"` // RFC3339
}

// ReservationResponse HTTP response model
type ReservationResponse struct {
	ID        string    `json:"id"`
	RuleID    int64     `json:"ruleId"`
	SlotStart time.Time `json:"slotStart"`
	SlotEnd   time.Time `json:"slotEnd"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt"`
	Taken     int       `json:"taken"`
	Capacity  int       `json:"capacity"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ReserveSlotRequest) ToUseCaseRequest(userID int64) *reserveSlot.Request {
	return &reserveSlot.Request{
		UserID:    userID,
		RuleID:    r.RuleID,
		SlotStart: r.SlotStart,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *reserveSlot.Response) *ReservationResponse {
	return &ReservationResponse{
		ID:        resp.ReservationID.String(),
		RuleID:    resp.RuleID,
		SlotStart: resp.SlotStart,
		SlotEnd:   resp.SlotEnd,
		Status:    string(resp.Status),
		ExpiresAt: resp.ExpiresAt,
		Taken:     resp.Taken,
		Capacity:  resp.Capacity,
	}
}
