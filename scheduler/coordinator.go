package scheduler

import (
	"context"
	"sync"
)

// Coordinator is the narrow interface the scheduler's drain loop needs:
// an index-of-ready-mailboxes with dedup and FIFO-best-effort semantics.
// Both ReadyQueueCoordinator (mutex-guarded) and LockFreeCoordinator
// implement it identically, per spec.md §4.3's "two V2 implementations
// coexist" note.
type Coordinator interface {
	// RegisterReady marks idx as having pending work. Idempotent: a
	// second registration before the index is drained is a no-op.
	RegisterReady(idx MailboxIndex)

	// Unregister removes idx from the queued set without touching the
	// underlying queue; a stale entry is simply skipped on drain.
	Unregister(idx MailboxIndex)

	// DrainReadyCycle pops up to maxBatch indices in FIFO order,
	// skipping any that were unregistered since being queued, and
	// appends them to out (which is cleared first). It returns the
	// (possibly reallocated) slice.
	DrainReadyCycle(maxBatch int, out []MailboxIndex) []MailboxIndex

	// PollWaitSignal reports whether a registration has happened since
	// the last successful poll, clearing the pending flag if so.
	PollWaitSignal() bool

	// Wait blocks until PollWaitSignal would return true, or ctx is
	// cancelled.
	Wait(ctx context.Context) error

	// HandleInvokeResult maps an InvokeResult to a register/unregister
	// action per spec.md §4.3's table.
	HandleInvokeResult(idx MailboxIndex, result InvokeResult)
}

// ReadyQueueCoordinator is the mutex-guarded deque+set coordinator: simpler
// and lower-latency for a handful of concurrent producers, per spec.md
// §4.3. It is the default Coordinator implementation.
type ReadyQueueCoordinator struct {
	mu            sync.Mutex
	cond          *sync.Cond
	queue         []MailboxIndex
	queued        map[MailboxIndex]struct{}
	signalPending bool
}

// NewReadyQueueCoordinator constructs an empty coordinator.
func NewReadyQueueCoordinator() *ReadyQueueCoordinator {
	c := &ReadyQueueCoordinator{
		queued: make(map[MailboxIndex]struct{}),
	}
	c.cond = sync.NewCond(&c.mu)

	return c
}

// RegisterReady implements Coordinator.
func (c *ReadyQueueCoordinator) RegisterReady(idx MailboxIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, already := c.queued[idx]; already {
		return
	}

	c.queued[idx] = struct{}{}
	c.queue = append(c.queue, idx)
	c.signalPending = true
	c.cond.Broadcast()
}

// Unregister implements Coordinator.
func (c *ReadyQueueCoordinator) Unregister(idx MailboxIndex) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.queued, idx)
}

// DrainReadyCycle implements Coordinator.
func (c *ReadyQueueCoordinator) DrainReadyCycle(maxBatch int, out []MailboxIndex) []MailboxIndex {
	c.mu.Lock()
	defer c.mu.Unlock()

	out = out[:0]

	for len(out) < maxBatch && len(c.queue) > 0 {
		idx := c.queue[0]
		c.queue = c.queue[1:]

		if _, stillQueued := c.queued[idx]; !stillQueued {
			continue
		}

		delete(c.queued, idx)
		out = append(out, idx)
	}

	// Compact the backing array once in a while so a long-lived
	// coordinator doesn't retain an ever-growing slice.
	if len(c.queue) == 0 {
		c.queue = nil
	}

	return out
}

// PollWaitSignal implements Coordinator.
func (c *ReadyQueueCoordinator) PollWaitSignal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.signalPending {
		return false
	}

	c.signalPending = false

	return true
}

// Wait implements Coordinator.
func (c *ReadyQueueCoordinator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.cond.Broadcast()
			c.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.queue) == 0 {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.cond.Wait()
	}

	return nil
}

// HandleInvokeResult implements Coordinator, per spec.md §4.3's table.
func (c *ReadyQueueCoordinator) HandleInvokeResult(idx MailboxIndex, result InvokeResult) {
	switch r := result.(type) {
	case Completed:
		if r.ReadyHint {
			c.RegisterReady(idx)
		} else {
			c.Unregister(idx)
		}

	case Yielded:
		c.RegisterReady(idx)

	case Suspended:
		c.Unregister(idx)

	case Stopped:
		c.Unregister(idx)

	case Failed:
		c.Unregister(idx)
		// RetryAfter re-registration is driven externally (a timer
		// calling RegisterReady once the delay elapses), per the
		// Open Question in spec.md §9.

	default:
		log.Warnf("coordinator: unknown invoke result %T for %v", result, idx)
		c.Unregister(idx)
	}
}

// Len reports how many indices are currently queued, for tests and
// diagnostics.
func (c *ReadyQueueCoordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.queued)
}

// ThroughputHint returns the default per-invocation batch ceiling. It is a
// free function rather than a Coordinator method because it's a property of
// the cell/scheduler pairing, not the coordinator's queue state; both
// implementations share the same default.
func ThroughputHint() int { return 32 }
