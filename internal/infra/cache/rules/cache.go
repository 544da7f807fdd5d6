package rules

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

const weekdays = 7

// Loader источник активных правил дня недели
type Loader interface {
	ListActiveByWeekday(ctx context.Context, weekday int) ([]*domain.AvailabilityRule, error)
}

// Metrics учет попаданий в кэш
type Metrics interface {
	ObserveRuleCache(hit bool)
}

// Cache кэш активных правил по дню недели.
// Сбрасывается явно через Invalidate, который RuleService вызывает после фиксации транзакции.
// Сброс локален для процесса, изменения с других реплик подхватываются по истечении ttl.
type Cache struct {
	loader  Loader
	metrics Metrics
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group

	mu         sync.RWMutex
	entries    [weekdays][]*domain.AvailabilityRule
	loaded     [weekdays]bool
	loadedAt   [weekdays]time.Time
	generation [weekdays]uint64
}

// New создает кэш поверх loader. ttl <= 0 отключает истечение записей.
func New(loader Loader, metrics Metrics, ttl time.Duration) *Cache {
	return &Cache{loader: loader, metrics: metrics, ttl: ttl, now: time.Now}
}

// ListActiveByWeekday возвращает копию активных правил дня недели, загружая их при промахе.
// Конкурентные промахи одного дня недели выполняют одну загрузку.
func (c *Cache) ListActiveByWeekday(ctx context.Context, weekday int) ([]*domain.AvailabilityRule, error) {
	if weekday < domain.MinWeekday || weekday > domain.MaxWeekday {
		return c.loader.ListActiveByWeekday(ctx, weekday)
	}

	c.mu.RLock()
	cached, ok := c.entries[weekday], c.loaded[weekday]
	if ok && c.ttl > 0 && c.now().Sub(c.loadedAt[weekday]) >= c.ttl {
		ok = false
	}
	gen := c.generation[weekday]
	c.mu.RUnlock()

	c.metrics.ObserveRuleCache(ok)
	if ok {
		return cloneRules(cached), nil
	}

	// поколение входит в ключ: загрузка, начатая до сброса, не раздается новым вызовам.
	// Загрузка не зависит от отмены контекста первого вызова, остальные ждут ее результата.
	loadCtx := context.WithoutCancel(ctx)
	key := strconv.Itoa(weekday) + ":" + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		loaded, err := c.loader.ListActiveByWeekday(loadCtx, weekday)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation[weekday] == gen {
			c.entries[weekday] = loaded
			c.loaded[weekday] = true
			c.loadedAt[weekday] = c.now()
		}
		c.mu.Unlock()

		return loaded, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneRules(res.Val.([]*domain.AvailabilityRule)), nil
	}
}

// Invalidate сбрасывает указанные дни недели, без аргументов сбрасывает все
func (c *Cache) Invalidate(weekdayList ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(weekdayList) == 0 {
		for wd := 0; wd < weekdays; wd++ {
			c.reset(wd)
		}
		return
	}

	for _, wd := range weekdayList {
		if wd >= domain.MinWeekday && wd <= domain.MaxWeekday {
			c.reset(wd)
		}
	}
}

func (c *Cache) reset(weekday int) {
	c.entries[weekday] = nil
	c.loaded[weekday] = false
	c.loadedAt[weekday] = time.Time{}
	c.generation[weekday]++
}

func cloneRules(src []*domain.AvailabilityRule) []*domain.AvailabilityRule {
	out := make([]*domain.AvailabilityRule, len(src))
	for i, r := range src {
		out[i] = r.Clone()
	}
	return out
}
