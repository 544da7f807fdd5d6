package reservations

import "errors"

var (
	// ErrNotHeld возвращается при подтверждении удержания, которое уже освобождено или истекло
	ErrNotHeld = errors.New("reservation is not held")

	// ErrConsultationMismatch возвращается, когда консультация не соответствует удержанному слоту
	ErrConsultationMismatch = errors.New("consultation does not match the reserved slot")

	// ErrAccessDenied возвращается, когда удержание принадлежит другому пользователю
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
