package reserve_slot

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// Config параметры допуска
type Config struct {
	HoldTTL   time.Duration  // сколько живет удержание без подтверждения
	TxTimeout time.Duration  // ограничение на всю транзакцию, включая повтор
	Location  *time.Location // зона, в которой правила трактуются как настенное время
}

// Request модель запроса на удержание места в слоте
type Request struct {
	UserID    int64     // ID пользователя (0 - анонимный вызов из booking flow)
	RuleID    int64     // ID правила, породившего слот
	SlotStart time.Time // Начало слота
}

// Response модель ответа с созданным удержанием
type Response struct {
	ReservationID uuid.UUID
	RuleID        int64
	SlotStart     time.Time
	SlotEnd       time.Time
	Status        domain.ReservationStatus
	ExpiresAt     time.Time
	Taken         int // занято мест в слоте с учетом этого удержания
	Capacity      int
}
