package scheduler

import (
	"sync"
	"sync/atomic"
)

// ShutdownToken is a checked-between-batches signal the drain loop consults
// before every DispatchStep, per spec.md §4.6's cancellation rule. Each
// ReadyQueueScheduler creates its own token (reachable via Shutdown()); a
// token cannot be handed to another scheduler, so each scheduler is
// triggered separately.
type ShutdownToken struct {
	triggered atomic.Bool
	once      sync.Once
	ch        chan struct{}
}

// NewShutdownToken constructs an untriggered token.
func NewShutdownToken() *ShutdownToken {
	return &ShutdownToken{ch: make(chan struct{})}
}

// Trigger marks the token as tripped and wakes any Run loop blocked in
// Coordinator.Wait. Idempotent.
func (t *ShutdownToken) Trigger() {
	t.once.Do(func() {
		t.triggered.Store(true)
		close(t.ch)
	})
}

// Triggered reports whether Trigger has been called.
func (t *ShutdownToken) Triggered() bool {
	return t.triggered.Load()
}

// Done returns a channel closed when Trigger is called, for select-based
// waiting alongside a coordinator's own wake signal.
func (t *ShutdownToken) Done() <-chan struct{} {
	return t.ch
}
