package confirm_reservation

import "github.com/m04kA/SMC-AvailabilityService/internal/service/reservations/models"

// ConfirmReservationRequest HTTP request model
type ConfirmReservationRequest struct {
	ConsultationID int64 `json:"consultationId"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *ConfirmReservationRequest) ToServiceRequest(userID int64) *models.ConfirmRequest {
	return &models.ConfirmRequest{
		UserID:         userID,
		ConsultationID: r.ConsultationID,
	}
}
