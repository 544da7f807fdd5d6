package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// validateRange проверяет диапазон и возвращает его границы как полночь в зоне расписания
func validateRange(req *Request, loc *time.Location, maxRangeDays int) (time.Time, time.Time, int, error) {
	if req.From.IsZero() || req.To.IsZero() {
		return time.Time{}, time.Time{}, 0, domain.NewValidationError(domain.KindInputInvalid, "from",
			"from and to dates are required")
	}

	from := dateIn(req.From, loc)
	to := dateIn(req.To, loc)
	if from.After(to) {
		return time.Time{}, time.Time{}, 0, domain.NewValidationError(domain.KindTimeRangeInvalid, "to",
			"from %s is after to %s", from.Format(domain.DateFormat), to.Format(domain.DateFormat))
	}

	days := daysBetween(from, to) + 1
	if maxRangeDays > 0 && days > maxRangeDays {
		return time.Time{}, time.Time{}, 0, domain.NewValidationError(domain.KindRangeTooLarge, "to",
			"range of %d days exceeds the maximum of %d", days, maxRangeDays)
	}

	return from, to, days, nil
}

// dateIn отбрасывает время, сохраняя календарную дату
func dateIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// daysBetween считает календарные дни, не завися от перехода на летнее время
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
