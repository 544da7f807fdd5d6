package get_available_slots

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

// generateSlots строит слоты одной даты из правил ее дня недели и консультаций этой даты.
// Правила обходятся по времени начала (при равенстве по id), каждое окно режется на шаги
// длительностью слота, неполный хвост окна отбрасывается.
// Функция чистая: текущее время передается снаружи.
func generateSlots(
	date time.Time,
	rules []*domain.AvailabilityRule,
	consultations []*domain.Consultation,
	now time.Time,
) []domain.Slot {
	// Шаг 1: Оставляем только активные правила нужного дня недели
	active := make([]*domain.AvailabilityRule, 0, len(rules))
	for _, rule := range rules {
		if rule.IsActive && rule.AppliesTo(date) {
			active = append(active, rule)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		si, sj := active[i].StartTime.Minutes(), active[j].StartTime.Minutes()
		if si != sj {
			return si < sj
		}
		return active[i].ID < active[j].ID
	})

	// Шаг 2: Считаем занятость по точному времени начала
	taken := countByStart(consultations)

	// Шаг 3: Нарезаем окна на слоты
	slots := make([]domain.Slot, 0)
	for _, rule := range active {
		for _, b := range rule.SlotBoundsOn(date) {
			slot := domain.Slot{
				RuleID:     rule.ID,
				Start:      b.Start,
				End:        b.End,
				Capacity:   rule.MaxParallel,
				TakenCount: taken[b.Start.UnixNano()],
			}
			slot.Available = slot.FreeSpots() > 0 && b.Start.After(now)
			slots = append(slots, slot)
		}
	}

	// Шаг 4: Окна активных правил не пересекаются, сортировка страхует от нарушенного инварианта
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})

	return slots
}

// countByStart группирует неотмененные консультации по моменту начала
func countByStart(consultations []*domain.Consultation) map[int64]int {
	counts := make(map[int64]int, len(consultations))
	for _, c := range consultations {
		if !c.IsActive() {
			continue
		}
		counts[c.ScheduledAt.UnixNano()]++
	}
	return counts
}

// groupByDate раскладывает консультации по календарным датам в зоне расписания
func groupByDate(consultations []*domain.Consultation, loc *time.Location) map[string][]*domain.Consultation {
	grouped := make(map[string][]*domain.Consultation)
	for _, c := range consultations {
		key := c.ScheduledAt.In(loc).Format(domain.DateFormat)
		grouped[key] = append(grouped[key], c)
	}
	return grouped
}
