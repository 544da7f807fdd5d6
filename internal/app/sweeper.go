package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// HoldExpirer освобождает просроченные удержания
type HoldExpirer interface {
	ExpireHolds(ctx context.Context) (int64, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// sweepTimeout ограничение на один проход
const sweepTimeout = 30 * time.Second

// HoldSweeper периодически освобождает удержания, которые не подтвердили вовремя.
// Работает на уровне приложения, движок доступности сам фоновых задач не ведет.
type HoldSweeper struct {
	cron    *cron.Cron
	expirer HoldExpirer
	logger  Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHoldSweeper создает планировщик по cron-выражению (поддерживаются дескрипторы вида "@every 1m")
func NewHoldSweeper(expirer HoldExpirer, spec string, logger Logger) (*HoldSweeper, error) {
	s := &HoldSweeper{
		expirer: expirer,
		logger:  logger,
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		ctx:     context.Background(),
	}

	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(s.baseContext()) }); err != nil {
		return nil, fmt.Errorf("app: invalid sweep schedule %q: %w", spec, err)
	}

	return s, nil
}

// Start запускает планировщик. Отмена ctx прерывает текущий проход.
func (s *HoldSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("HoldSweeper: starting")
	s.cron.Start()
}

// Stop останавливает планировщик и ждет завершения текущего прохода
func (s *HoldSweeper) Stop() {
	s.logger.Info("HoldSweeper: stopping")
	<-s.cron.Stop().Done()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
}

// RunOnce выполняет один проход освобождения
func (s *HoldSweeper) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	released, err := s.expirer.ExpireHolds(ctx)
	if err != nil {
		s.logger.Error("HoldSweeper: failed to release expired holds: %v", err)
		return
	}
	if released > 0 {
		s.logger.Info("HoldSweeper: released %d expired holds", released)
	}
}

func (s *HoldSweeper) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}
