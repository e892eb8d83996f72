package scheduler

import (
	"context"

	"github.com/arcrun/actorcore/pid"
)

// Behavior is the typed handler an ActorCell[M] drives: the untyped core
// dispatches to it one message at a time. A strongly-typed layer built on
// top of this core (out of scope per spec.md §1) compiles its own message
// variants down to an implementation of this interface.
type Behavior[M any] interface {
	// Receive processes one user message. Returning a non-nil error
	// triggers the supervision failure path (ActorCell.supervisor.
	// NotifyFailure), exactly as a caught panic would.
	Receive(ctx *ActorContext[M], msg M) error
}

// BehaviorFunc adapts a plain function to the Behavior interface.
type BehaviorFunc[M any] func(ctx *ActorContext[M], msg M) error

// Receive implements Behavior.
func (f BehaviorFunc[M]) Receive(ctx *ActorContext[M], msg M) error { return f(ctx, msg) }

// Stoppable is an optional interface a Behavior can implement to run cleanup
// when its cell transitions to stopped, after children have been issued
// Stop but before the cell is recycled.
type Stoppable interface {
	OnStop(ctx context.Context) error
}

// Restartable is an optional interface a Behavior can implement to reset its
// own state when the cell processes SystemMessage::Restart. If a Behavior
// does not implement it, Restart is a no-op on the handler itself (only the
// supervisor's restart bookkeeping runs).
type Restartable interface {
	OnRestart(ctx context.Context)
}

// TerminationAware is an optional interface a Behavior can implement to
// observe Terminated notifications for actors it is watching, delivered on
// the control lane per spec.md §3's SystemMessage::Terminated variant.
type TerminationAware interface {
	OnTerminated(actor pid.ActorId)
}

// ActorContext is the view a Behavior gets of its cell for one Receive call:
// identity, a background-derived context, and the ability to queue a child
// spawn for the scheduler to carry out after the current batch.
type ActorContext[M any] struct {
	ctx  context.Context
	cell *ActorCell[M]
}

// Context returns the context governing this dispatch; it carries no
// cancellation of its own (the scheduler's drain loop is synchronous from
// the handler's point of view per spec.md §5) but is threaded through so a
// handler can derive request-scoped timeouts for outbound Ask calls.
func (c *ActorContext[M]) Context() context.Context { return c.ctx }

// Self returns this cell's ActorId.
func (c *ActorContext[M]) Self() pid.ActorId { return c.cell.id }

// Path returns this cell's fully qualified path.
func (c *ActorContext[M]) Path() pid.ActorPath { return c.cell.path }

// Watchers returns the ActorIds currently watching this cell.
func (c *ActorContext[M]) Watchers() []pid.ActorId {
	return c.cell.watcherList()
}

// Spawn queues a child spawn to be carried out by the scheduler once the
// current dispatch batch completes (spec.md §4.4 step 6). The child's own
// message type is erased into the ChildSpawnSpec closure, which is how a
// single untyped pending-spawns buffer can hold children of differing
// types.
func (c *ActorContext[M]) Spawn(spec ChildSpawnSpec) {
	c.cell.pendingSpawns = append(c.cell.pendingSpawns, spec)
}

// Extensions returns the cell's per-actor extension bag, a small
// string-keyed map a Behavior can use to stash auxiliary state (e.g. a
// receive-timeout driver handle, metadata store keys) without widening
// ActorCell itself.
func (c *ActorContext[M]) Extensions() map[string]any {
	return c.cell.extensions
}
