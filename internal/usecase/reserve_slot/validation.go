package reserve_slot

import "github.com/m04kA/SMC-AvailabilityService/internal/domain"

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.RuleID <= 0 {
		return domain.NewValidationError(domain.KindInputInvalid, "ruleId", "must be positive")
	}

	if req.SlotStart.IsZero() {
		return domain.NewValidationError(domain.KindInputInvalid, "slotStart", "is required")
	}

	return nil
}
