package rules

import (
	"sort"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// Validator проверяет правило-кандидат: сначала форму, затем пересечение с активными правилами.
// Не выполняет ввод-вывод.
type Validator struct {
	rejectPartialWindows bool
}

// NewValidator создает валидатор.
// rejectPartialWindows запрещает окна, длина которых не кратна длительности слота.
func NewValidator(rejectPartialWindows bool) *Validator {
	return &Validator{rejectPartialWindows: rejectPartialWindows}
}

// Validate проверяет кандидата против существующих правил того же дня недели.
// Возвращает *domain.ValidationError, *domain.ConflictError или nil.
func (v *Validator) Validate(
	candidate *domain.AvailabilityRule,
	existing []*domain.AvailabilityRule,
	excludeID *int64,
) error {
	if err := v.CheckShape(candidate); err != nil {
		return err
	}
	if conflict := v.FindConflict(candidate, existing, excludeID); conflict != nil {
		return conflict
	}
	return nil
}

// CheckShape проверяет поля правила без учета других правил
func (v *Validator) CheckShape(r *domain.AvailabilityRule) error {
	if r.Weekday < domain.MinWeekday || r.Weekday > domain.MaxWeekday {
		return domain.NewValidationError(domain.KindWeekdayInvalid, "weekday",
			"must be between %d and %d, got %d", domain.MinWeekday, domain.MaxWeekday, r.Weekday)
	}
	if err := r.StartTime.Validate(); err != nil {
		return domain.NewValidationError(domain.KindTimeInvalid, "startTime",
			"must be HH:MM (24h), got %q", r.StartTime.String())
	}
	if err := r.EndTime.Validate(); err != nil {
		return domain.NewValidationError(domain.KindTimeInvalid, "endTime",
			"must be HH:MM (24h), got %q", r.EndTime.String())
	}
	if !r.StartTime.IsBefore(r.EndTime) {
		return domain.NewValidationError(domain.KindTimeRangeInvalid, "endTime",
			"must be after startTime (%s-%s)", r.StartTime, r.EndTime)
	}
	if r.SlotDurationMinutes < domain.MinSlotDurationMinutes || r.SlotDurationMinutes > domain.MaxSlotDurationMinutes {
		return domain.NewValidationError(domain.KindDurationInvalid, "slotDurationMinutes",
			"must be between %d and %d, got %d",
			domain.MinSlotDurationMinutes, domain.MaxSlotDurationMinutes, r.SlotDurationMinutes)
	}
	if r.SlotDurationMinutes > r.WindowMinutes() {
		return domain.NewValidationError(domain.KindDurationInvalid, "slotDurationMinutes",
			"%d minutes does not fit into the %d minute window", r.SlotDurationMinutes, r.WindowMinutes())
	}
	if r.MaxParallel < domain.MinMaxParallel || r.MaxParallel > domain.MaxMaxParallel {
		return domain.NewValidationError(domain.KindCapacityInvalid, "maxParallel",
			"must be between %d and %d, got %d", domain.MinMaxParallel, domain.MaxMaxParallel, r.MaxParallel)
	}
	if v.rejectPartialWindows && r.HasRemainder() {
		return domain.NewValidationError(domain.KindWindowRemainder, "endTime",
			"window %s-%s is not a multiple of %d minutes", r.StartTime, r.EndTime, r.SlotDurationMinutes)
	}
	return nil
}

// FindConflict возвращает первое (по началу окна, затем по id) активное правило того же дня недели,
// пересекающееся с кандидатом. Неактивный кандидат ни с чем не конфликтует.
func (v *Validator) FindConflict(
	candidate *domain.AvailabilityRule,
	existing []*domain.AvailabilityRule,
	excludeID *int64,
) *domain.ConflictError {
	if !candidate.IsActive {
		return nil
	}

	ordered := make([]*domain.AvailabilityRule, len(existing))
	copy(ordered, existing)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].StartTime.Minutes() != ordered[j].StartTime.Minutes() {
			return ordered[i].StartTime.Minutes() < ordered[j].StartTime.Minutes()
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, other := range ordered {
		if excludeID != nil && other.ID == *excludeID {
			continue
		}
		if !other.IsActive {
			continue
		}
		if candidate.Overlaps(other) {
			return &domain.ConflictError{ConflictingRule: *other}
		}
	}

	return nil
}
