package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// Request модель запроса на получение слотов за диапазон дат (включительно)
type Request struct {
	From time.Time // Первая дата диапазона (время игнорируется)
	To   time.Time // Последняя дата диапазона (время игнорируется)
}

// Response модель ответа: по одной записи на каждую дату диапазона
type Response struct {
	From time.Time
	To   time.Time
	Days []domain.DaySlots
}
