package rules

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных параметрах фильтра или пустом патче
	ErrInvalidInput = errors.New("invalid input data")

	// ErrConcurrentModification возвращается, когда изменение не удалось из-за повторного конфликта сериализации
	ErrConcurrentModification = errors.New("rule was modified concurrently, retry the request")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
