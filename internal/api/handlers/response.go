package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

const (
	msgInternalError = "внутренняя ошибка сервера"
	maxBodyBytes     = 1 << 20
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error   string      `json:"error"`
	Kind    string      `json:"kind,omitempty"`
	Field   string      `json:"field,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// ConflictingRule правило, с которым пересекается кандидат
type ConflictingRule struct {
	ID        int64  `json:"id"`
	Weekday   int    `json:"weekday"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsActive  bool   `json:"isActive"`
}

// SlotFull детали переполненного слота
type SlotFull struct {
	RuleID    int64     `json:"ruleId"`
	SlotStart time.Time `json:"slotStart"`
	Taken     int       `json:"taken,omitempty"`
	Capacity  int       `json:"capacity,omitempty"`
}

// RespondJSON отправляет JSON ответ
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError отправляет ошибку с сообщением
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Error: message})
}

// RespondBadRequest 400
func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

// RespondUnauthorized 401
func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, message)
}

// RespondForbidden 403
func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

// RespondNotFound 404
func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

// RespondConflict 409
func RespondConflict(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusConflict, message)
}

// RespondInternalError 500 без подробностей
func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// RespondValidationError 400 с видом ошибки и полем
func RespondValidationError(w http.ResponseWriter, message string, err *domain.ValidationError) {
	RespondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Kind:    string(err.Kind),
		Field:   err.Field,
		Details: err.Message,
	})
}

// RespondRuleConflict 409 с правилом, которое мешает
func RespondRuleConflict(w http.ResponseWriter, message string, err *domain.ConflictError) {
	r := err.ConflictingRule
	RespondJSON(w, http.StatusConflict, ErrorResponse{
		Error: message,
		Kind:  "RULE_CONFLICT",
		Details: ConflictingRule{
			ID:        r.ID,
			Weekday:   r.Weekday,
			StartTime: r.StartTime.String(),
			EndTime:   r.EndTime.String(),
			IsActive:  r.IsActive,
		},
	})
}

// RespondCapacityExceeded 409 с описанием заполненного слота
func RespondCapacityExceeded(w http.ResponseWriter, message string, err *domain.CapacityExceededError) {
	RespondJSON(w, http.StatusConflict, ErrorResponse{
		Error: message,
		Kind:  "CAPACITY_EXCEEDED",
		Details: SlotFull{
			RuleID:    err.RuleID,
			SlotStart: err.SlotStart,
			Taken:     err.Taken,
			Capacity:  err.Capacity,
		},
	})
}

// DecodeJSON декодирует тело запроса, отвергая неизвестные поля
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}
