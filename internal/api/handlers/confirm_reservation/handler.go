package confirm_reservation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AvailabilityService/internal/api/handlers"
	"github.com/m04kA/SMC-AvailabilityService/internal/api/middleware"
	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	"github.com/m04kA/SMC-AvailabilityService/internal/service/reservations"
)

const (
	msgInvalidReservationID = "некорректный ID удержания"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidInput         = "consultationId обязателен"
	msgNotFound             = "удержание или консультация не найдены"
	msgNotHeld              = "удержание уже освобождено или истекло"
	msgMismatch             = "консультация не соответствует удержанному слоту"
	msgAccessDenied         = "удержание принадлежит другому пользователю"
	msgMissingUserID        = "отсутствует ID пользователя"
)

type Handler struct {
	service ReservationService
	logger  Logger
}

func NewHandler(service ReservationService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations/{reservationId}/confirm
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reservationID, err := uuid.Parse(mux.Vars(r)["reservationId"])
	if err != nil {
		h.logger.Warn("POST /reservations/{id}/confirm - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations/{id}/confirm - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req ConfirmReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations/{id}/confirm - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Confirm(r.Context(), reservationID, req.ToServiceRequest(userID))
	if err != nil {
		switch {
		case errors.Is(err, reservations.ErrInvalidInput):
			h.logger.Warn("POST /reservations/{id}/confirm - Invalid input: reservation_id=%s", reservationID)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, domain.ErrNotFound):
			h.logger.Warn("POST /reservations/{id}/confirm - Not found: reservation_id=%s, %v", reservationID, err)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reservations.ErrAccessDenied):
			h.logger.Warn("POST /reservations/{id}/confirm - Access denied: reservation_id=%s, user_id=%d", reservationID, userID)
			handlers.RespondForbidden(w, msgAccessDenied)

		case errors.Is(err, reservations.ErrNotHeld):
			h.logger.Warn("POST /reservations/{id}/confirm - Not held: reservation_id=%s, %v", reservationID, err)
			handlers.RespondConflict(w, msgNotHeld)

		case errors.Is(err, reservations.ErrConsultationMismatch):
			h.logger.Warn("POST /reservations/{id}/confirm - Consultation mismatch: reservation_id=%s, consultation_id=%d",
				reservationID, req.ConsultationID)
			handlers.RespondConflict(w, msgMismatch)

		default:
			h.logger.Error("POST /reservations/{id}/confirm - Failed to confirm: reservation_id=%s, error=%v", reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations/{id}/confirm - Reservation confirmed: reservation_id=%s, consultation_id=%d",
		reservationID, req.ConsultationID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
