package reserve_slot

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	ruleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/rule"
)

// store общее состояние фейковых репозиториев
type store struct {
	mu            sync.Mutex
	rules         map[int64]*domain.AvailabilityRule
	consultations []*domain.Consultation
	reservations  []*domain.Reservation
}

func newStore(rules ...*domain.AvailabilityRule) *store {
	s := &store{rules: make(map[int64]*domain.AvailabilityRule)}
	for _, r := range rules {
		s.rules[r.ID] = r
	}
	return s
}

func (s *store) GetByID(_ context.Context, id int64) (*domain.AvailabilityRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, ruleRepo.ErrRuleNotFound
	}
	return r.Clone(), nil
}

func (s *store) CountActiveAt(_ context.Context, slotStart time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.consultations {
		if c.IsActive() && c.ScheduledAt.Equal(slotStart) {
			n++
		}
	}
	return n, nil
}

func (s *store) CountHeld(_ context.Context, ruleID int64, slotStart, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.RuleID == ruleID && r.SlotStart.Equal(slotStart) && r.IsHeld(now) && !s.coveredLocked(r.ID) {
			n++
		}
	}
	return n, nil
}

// coveredLocked сообщает, создана ли по удержанию активная консультация
func (s *store) coveredLocked(id uuid.UUID) bool {
	for _, c := range s.consultations {
		if c.IsActive() && c.ReservationID != nil && *c.ReservationID == id {
			return true
		}
	}
	return false
}

func (s *store) Create(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	created := *res
	s.reservations = append(s.reservations, &created)
	out := created
	return &out, nil
}

func (s *store) reservationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}

// serialTx исполняет транзакции строго по одной, как SERIALIZABLE без конфликтов
type serialTx struct {
	mu  sync.Mutex
	err error
}

func (m *serialTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	return fn(ctx)
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (m *recordingMetrics) ObserveAdmission(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]int)
	}
	m.outcomes[outcome]++
}

func (m *recordingMetrics) count(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[outcome]
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }
