package mailbox

import (
	"context"
	"iter"
	"sync"
)

// CellEnvelope is what Mailbox.Receive yields: either a control-lane
// SystemMessage or a regular-lane PriorityEnvelope[M], never both. The
// control lane always drains ahead of the regular lane.
type CellEnvelope[M any] struct {
	system   SystemMessage
	user     PriorityEnvelope[M]
	isSystem bool
}

// IsSystem reports whether this is a control-lane envelope.
func (c CellEnvelope[M]) IsSystem() bool { return c.isSystem }

// System returns the control-lane message and true, or the zero value and
// false if this envelope is a regular-lane one.
func (c CellEnvelope[M]) System() (SystemMessage, bool) {
	if !c.isSystem {
		return nil, false
	}
	return c.system, true
}

// User returns the regular-lane envelope and true, or the zero value and
// false if this envelope is a control-lane one.
func (c CellEnvelope[M]) User() (PriorityEnvelope[M], bool) {
	if c.isSystem {
		return PriorityEnvelope[M]{}, false
	}
	return c.user, true
}

// Mailbox is a dual-lane, single-consumer, multi-producer queue feeding one
// ActorCell. The control lane (raw SystemMessage values, enqueued via
// SendSystem) always drains ahead of the regular lane (PriorityEnvelope[M]
// values, enqueued via Send/TrySend); within a lane, delivery is FIFO. The
// regular lane's overflow policy never applies to the control lane: a full
// control lane is a hard error, since silently dropping system traffic
// (Stop, Restart, Terminated, ...) would corrupt the supervision protocol.
//
// Concurrent producers are serialized by an internal mutex; a single
// consumer goroutine is assumed, matching the scheduler's one-cell-at-a-time
// dispatch model.
type Mailbox[M any] struct {
	mu      sync.Mutex
	notify  *sync.Cond
	control []SystemMessage
	regular []PriorityEnvelope[M]

	opts    MailboxOptions
	metrics MetricsSink

	closed    bool
	closeOnce sync.Once

	// onReady, if installed, is invoked after every successful enqueue
	// (either lane), outside mb.mu, so a scheduler can re-register this
	// mailbox's MailboxIndex as ready. It is nil until the owning cell is
	// inserted into a scheduler's slab, since the index isn't known
	// before then; enqueues that happen before insertion need no wakeup,
	// since the cell is registered ready as part of insertion itself.
	onReady func()
}

// SetReadyNotify installs the callback a scheduler invokes after every
// successful enqueue, so a cell that has idled out of the ready queue gets
// re-registered once new traffic arrives. Passing nil disables notification.
func (mb *Mailbox[M]) SetReadyNotify(fn func()) {
	mb.mu.Lock()
	mb.onReady = fn
	mb.mu.Unlock()
}

// notifyReadyLocked snapshots the installed hook while mb.mu is held. The
// caller must invoke the returned func after releasing mb.mu, since the hook
// may call back into the coordinator.
func (mb *Mailbox[M]) notifyReadyLocked() func() {
	fn := mb.onReady
	if fn == nil {
		return func() {}
	}
	return fn
}

// NewMailbox constructs a Mailbox with the given options. A nil metrics sink
// is replaced with NoopMetricsSink.
func NewMailbox[M any](opts MailboxOptions, metrics MetricsSink) *Mailbox[M] {
	if metrics == nil {
		metrics = NoopMetricsSink{}
	}

	mb := &Mailbox[M]{opts: opts, metrics: metrics}
	mb.notify = sync.NewCond(&mb.mu)

	return mb
}

// Len returns the combined number of envelopes queued across both lanes.
func (mb *Mailbox[M]) Len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return len(mb.control) + len(mb.regular)
}

// SendSystem enqueues a control-lane SystemMessage. It never applies an
// overflow policy: if the control lane is at its reserved capacity, it
// returns a QueueFull MailboxError. Because the control lane's element type
// doesn't depend on M, Mailbox[M] satisfies ControlSender for any M, which
// is what lets a guardian hold a heterogeneous set of children's control
// lanes without knowing each child's message type.
func (mb *Mailbox[M]) SendSystem(msg SystemMessage) error {
	mb.mu.Lock()

	if mb.closed {
		mb.mu.Unlock()
		return MailboxError[M]{Kind: Closed}
	}

	reserve := mb.opts.PriorityCapacity
	if !reserve.IsLimitless() && len(mb.control) >= reserve.Limit() {
		mb.metrics.Observe(MailboxSystemReservationExhausted{})
		mb.mu.Unlock()

		return MailboxError[M]{Kind: QueueFull, Policy: DropNewest}
	}

	mb.control = append(mb.control, msg)
	mb.notify.Broadcast()

	remaining := -1
	if !reserve.IsLimitless() {
		remaining = reserve.Limit() - len(mb.control)
	}
	mb.metrics.Observe(MailboxSystemReservedUsed{Remaining: remaining})

	wake := mb.notifyReadyLocked()
	mb.mu.Unlock()
	wake()

	return nil
}

// TrySend enqueues a regular-lane envelope without blocking, applying the
// mailbox's overflow policy. On success it invokes the installed ready
// notification hook, if any, so a scheduler can wake a cell that idled out
// of its ready queue.
func (mb *Mailbox[M]) TrySend(env PriorityEnvelope[M]) error {
	mb.mu.Lock()
	err := mb.enqueueRegularLocked(env)
	wake := mb.notifyReadyLocked()
	mb.mu.Unlock()

	if err == nil {
		wake()
	}

	return err
}

// Send enqueues a regular-lane envelope, blocking under the Block overflow
// policy until room frees up or ctx is cancelled. Every other policy
// behaves identically to TrySend.
func (mb *Mailbox[M]) Send(ctx context.Context, env PriorityEnvelope[M]) error {
	mb.mu.Lock()
	err := mb.enqueueRegularLockedCtx(ctx, env)
	wake := mb.notifyReadyLocked()
	mb.mu.Unlock()

	if err == nil {
		wake()
	}

	return err
}

func (mb *Mailbox[M]) atCapacityLocked() bool {
	cap := mb.opts.Capacity
	return !cap.IsLimitless() && len(mb.regular) >= cap.Limit()
}

func (mb *Mailbox[M]) enqueueRegularLocked(env PriorityEnvelope[M]) error {
	if mb.closed {
		return MailboxError[M]{Kind: Closed, Preserved: env.Message()}
	}

	if !mb.atCapacityLocked() {
		mb.regular = append(mb.regular, env)
		mb.notify.Broadcast()
		mb.metrics.Observe(MailboxEnqueued{})

		return nil
	}

	switch mb.opts.Overflow {
	case DropNewest:
		mb.metrics.Observe(MailboxDroppedNewest{Count: 1})

		return MailboxError[M]{Kind: QueueFull, Policy: DropNewest, Preserved: env.Message()}

	case DropOldest:
		mb.regular = append(mb.regular[1:], env)
		mb.notify.Broadcast()
		mb.metrics.Observe(MailboxDroppedOldest{Count: 1})

		return nil

	case Grow:
		mb.regular = append(mb.regular, env)
		mb.notify.Broadcast()
		mb.metrics.Observe(MailboxGrewTo{Capacity: len(mb.regular)})

		return nil

	case Block:
		return MailboxError[M]{Kind: Backpressure, Policy: Block, Preserved: env.Message()}

	default:
		return MailboxError[M]{Kind: Backpressure, Policy: mb.opts.Overflow, Preserved: env.Message()}
	}
}

func (mb *Mailbox[M]) enqueueRegularLockedCtx(ctx context.Context, env PriorityEnvelope[M]) error {
	if mb.opts.Overflow != Block {
		return mb.enqueueRegularLocked(env)
	}

	if mb.closed {
		return MailboxError[M]{Kind: Closed, Preserved: env.Message()}
	}

	stop := mb.watchContextLocked(ctx)
	defer stop()

	for mb.atCapacityLocked() && !mb.closed {
		if ctx.Err() != nil {
			return MailboxError[M]{Kind: Backpressure, Policy: Block, Preserved: env.Message()}
		}
		mb.notify.Wait()
	}

	if mb.closed {
		return MailboxError[M]{Kind: Closed, Preserved: env.Message()}
	}
	if ctx.Err() != nil {
		return MailboxError[M]{Kind: Backpressure, Policy: Block, Preserved: env.Message()}
	}

	mb.regular = append(mb.regular, env)
	mb.notify.Broadcast()
	mb.metrics.Observe(MailboxEnqueued{})

	return nil
}

// watchContextLocked arranges for the mailbox's condition variable to be
// woken when ctx is cancelled, so a blocked Send/Receive can observe
// ctx.Err() and return instead of waiting forever. It assumes mb.mu is
// already held; the watcher goroutine re-acquires it only to broadcast. The
// returned func must be deferred to stop the watcher once the wait
// completes normally.
func (mb *Mailbox[M]) watchContextLocked(ctx context.Context) func() {
	done := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			mb.mu.Lock()
			mb.notify.Broadcast()
			mb.mu.Unlock()
		case <-done:
		}
	}()

	return func() { close(done) }
}

// popLocked removes and returns the next envelope in priority order
// (control lane before regular lane), or reports false if both are empty.
func (mb *Mailbox[M]) popLocked() (CellEnvelope[M], bool) {
	if len(mb.control) > 0 {
		msg := mb.control[0]
		mb.control = mb.control[1:]

		return CellEnvelope[M]{system: msg, isSystem: true}, true
	}

	if len(mb.regular) > 0 {
		env := mb.regular[0]
		mb.regular = mb.regular[1:]
		// Wake any Block-policy sender waiting for room.
		mb.notify.Broadcast()

		return CellEnvelope[M]{user: env}, true
	}

	return CellEnvelope[M]{}, false
}

// TryReceive pops the next envelope without blocking, reporting false if the
// mailbox is empty.
func (mb *Mailbox[M]) TryReceive() (CellEnvelope[M], bool) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return mb.popLocked()
}

// Receive returns an iterator that yields envelopes as they arrive,
// stopping when ctx is cancelled or the mailbox is closed and drained. This
// mirrors the scheduler's per-cell drain loop: pop up to a throughput hint,
// then yield control back to the ready queue.
func (mb *Mailbox[M]) Receive(ctx context.Context) iter.Seq[CellEnvelope[M]] {
	return func(yield func(CellEnvelope[M]) bool) {
		for {
			if ctx.Err() != nil {
				return
			}

			mb.mu.Lock()
			stop := mb.watchContextLocked(ctx)

			for {
				if env, ok := mb.popLocked(); ok {
					stop()
					mb.mu.Unlock()

					if !yield(env) {
						return
					}

					break
				}

				if mb.closed {
					stop()
					mb.mu.Unlock()

					return
				}

				if ctx.Err() != nil {
					stop()
					mb.mu.Unlock()

					return
				}

				mb.notify.Wait()
			}
		}
	}
}

// Close marks the mailbox closed, rejecting further sends. It returns the
// envelopes still queued in either lane, in drain order, so the caller can
// route them to a dead-letter sink instead of losing them silently.
func (mb *Mailbox[M]) Close() []CellEnvelope[M] {
	var remaining []CellEnvelope[M]

	mb.closeOnce.Do(func() {
		mb.mu.Lock()
		defer mb.mu.Unlock()

		mb.closed = true
		for _, msg := range mb.control {
			remaining = append(remaining, CellEnvelope[M]{system: msg, isSystem: true})
		}
		for _, env := range mb.regular {
			remaining = append(remaining, CellEnvelope[M]{user: env})
		}
		mb.control = nil
		mb.regular = nil
		mb.notify.Broadcast()
	})

	return remaining
}

// Closed reports whether Close has been called.
func (mb *Mailbox[M]) Closed() bool {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return mb.closed
}
