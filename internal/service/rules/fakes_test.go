package rules

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
	ruleRepo "github.com/m04kA/SMC-AvailabilityService/internal/infra/storage/rule"
	"github.com/m04kA/SMC-AvailabilityService/pkg/logger"
	"github.com/m04kA/SMC-AvailabilityService/pkg/metrics"
	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// memoryStore правила и журнал в памяти с откатом при ошибке транзакции
type memoryStore struct {
	mu        sync.Mutex
	rules     map[int64]*domain.AvailabilityRule
	logs      []*domain.AvailabilityLogEntry
	nextID    int64
	appendErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rules: make(map[int64]*domain.AvailabilityRule), nextID: 1}
}

type snapshot struct {
	rules  map[int64]*domain.AvailabilityRule
	logs   []*domain.AvailabilityLogEntry
	nextID int64
}

func (s *memoryStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	rules := make(map[int64]*domain.AvailabilityRule, len(s.rules))
	for id, r := range s.rules {
		rules[id] = r.Clone()
	}
	return snapshot{rules: rules, logs: append([]*domain.AvailabilityLogEntry(nil), s.logs...), nextID: s.nextID}
}

func (s *memoryStore) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules, s.logs, s.nextID = snap.rules, snap.logs, snap.nextID
}

// ruleRepository

type fakeRuleRepo struct{ store *memoryStore }

func (f *fakeRuleRepo) Create(_ context.Context, rule *domain.AvailabilityRule) (*domain.AvailabilityRule, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	created := rule.Clone()
	created.ID = f.store.nextID
	f.store.nextID++
	f.store.rules[created.ID] = created.Clone()
	return created, nil
}

func (f *fakeRuleRepo) GetByID(_ context.Context, id int64) (*domain.AvailabilityRule, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	r, ok := f.store.rules[id]
	if !ok {
		return nil, ruleRepo.ErrRuleNotFound
	}
	return r.Clone(), nil
}

func (f *fakeRuleRepo) List(_ context.Context, filter domain.RuleFilter) ([]*domain.AvailabilityRule, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	out := make([]*domain.AvailabilityRule, 0)
	for _, r := range f.store.rules {
		if filter.Weekday != nil && r.Weekday != *filter.Weekday {
			continue
		}
		if filter.Active != nil && r.IsActive != *filter.Active {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRuleRepo) FindOverlapping(_ context.Context, weekday int, start, end types.TimeString, excludeID *int64) ([]*domain.AvailabilityRule, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	probe := &domain.AvailabilityRule{Weekday: weekday, StartTime: start, EndTime: end}
	out := make([]*domain.AvailabilityRule, 0)
	for _, r := range f.store.rules {
		if !r.IsActive || (excludeID != nil && r.ID == *excludeID) {
			continue
		}
		if probe.Overlaps(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) Update(_ context.Context, rule *domain.AvailabilityRule) (*domain.AvailabilityRule, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.rules[rule.ID]; !ok {
		return nil, ruleRepo.ErrRuleNotFound
	}
	f.store.rules[rule.ID] = rule.Clone()
	return rule.Clone(), nil
}

func (f *fakeRuleRepo) Delete(_ context.Context, id int64) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.rules[id]; !ok {
		return ruleRepo.ErrRuleNotFound
	}
	delete(f.store.rules, id)
	return nil
}

// logRepository

type fakeLogRepo struct{ store *memoryStore }

func (f *fakeLogRepo) Append(_ context.Context, entry *domain.AvailabilityLogEntry) (*domain.AvailabilityLogEntry, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.store.appendErr != nil {
		return nil, f.store.appendErr
	}
	e := *entry
	e.ID = int64(len(f.store.logs) + 1)
	f.store.logs = append(f.store.logs, &e)
	return &e, nil
}

func (f *fakeLogRepo) List(_ context.Context, filter domain.LogFilter) ([]*domain.AvailabilityLogEntry, int, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	out := make([]*domain.AvailabilityLogEntry, 0)
	for _, e := range f.store.logs {
		if filter.RuleID != nil && e.RuleID != *filter.RuleID {
			continue
		}
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		out = append(out, e)
	}
	total := len(out)
	if filter.Offset >= len(out) {
		return []*domain.AvailabilityLogEntry{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[filter.Offset:end], total, nil
}

// fakeTxManager сериализует транзакции и откатывает хранилище при ошибке
type fakeTxManager struct {
	mu    sync.Mutex
	store *memoryStore
	err   error
}

func (m *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type recordingCache struct {
	mu    sync.Mutex
	calls [][]int
}

func (c *recordingCache) Invalidate(weekdays ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, append([]int(nil), weekdays...))
}

type fixture struct {
	store *memoryStore
	tx    *fakeTxManager
	cache *recordingCache
	svc   *Service
}

func newFixture(rejectPartialWindows bool) *fixture {
	store := newMemoryStore()
	tx := &fakeTxManager{store: store}
	cache := &recordingCache{}
	svc := NewService(
		&fakeRuleRepo{store: store},
		&fakeLogRepo{store: store},
		tx,
		NewValidator(rejectPartialWindows),
		cache,
		metrics.Nop{},
		logger.NewNop(),
	)
	return &fixture{store: store, tx: tx, cache: cache, svc: svc}
}

func (f *fixture) actions(ruleID int64) []domain.LogAction {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []domain.LogAction
	for _, e := range f.store.logs {
		if e.RuleID == ruleID {
			out = append(out, e.Action)
		}
	}
	return out
}

var errAppend = errors.New("log storage unavailable")
