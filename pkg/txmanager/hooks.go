package txmanager

import (
	"context"
	"sync"
)

type hooksKey struct{}

type commitHooks struct {
	mu    sync.Mutex
	hooks []func()
}

func (h *commitHooks) add(hook func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

func (h *commitHooks) run() {
	h.mu.Lock()
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

func withHooks(ctx context.Context, hooks *commitHooks) context.Context {
	return context.WithValue(ctx, hooksKey{}, hooks)
}

// OnCommit регистрирует hook, который выполнится после успешной фиксации транзакции из ctx.
// При откате hook не выполняется. Вне транзакции hook выполняется сразу.
func OnCommit(ctx context.Context, hook func()) {
	hooks, ok := ctx.Value(hooksKey{}).(*commitHooks)
	if !ok {
		hook()
		return
	}
	hooks.add(hook)
}
