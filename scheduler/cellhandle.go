package scheduler

import (
	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/pid"
	"github.com/arcrun/actorcore/supervision"
)

// CellHandle is the non-generic view of an ActorCell[M] the scheduler's
// slab holds. Go generics can't parameterize a single slab over every
// actor's distinct message type, so the scheduler operates on this erased
// interface; ChildSpawnSpec closures are how a typed ActorCell[M] gets
// constructed and handed back as a CellHandle without the scheduler ever
// naming M.
type CellHandle interface {
	// ID returns this cell's ActorId.
	ID() pid.ActorId

	// Path returns this cell's fully qualified path.
	Path() pid.ActorPath

	// DispatchStep runs spec.md §4.4's dispatch loop for up to throughput
	// envelopes and returns the InvokeResult the coordinator should act
	// on.
	DispatchStep(throughput int) InvokeResult

	// TakePendingSpawns drains and returns the ChildSpawnSpecs queued by
	// the last DispatchStep's Behavior calls.
	TakePendingSpawns() []ChildSpawnSpec

	// TakeEscalations drains and returns FailureInfo values produced by
	// the last DispatchStep that must be routed to a parent cell or the
	// root escalation sink.
	TakeEscalations() []supervision.FailureInfo

	// ControlLane returns the cell's control-lane handle, used by the
	// scheduler to route Stop/Escalate traffic without knowing M.
	ControlLane() mailbox.ControlSender

	// Stopped reports whether this cell has fully processed Stop.
	Stopped() bool

	// ChildGuardian returns this cell's own guardian, used to register
	// children queued via ActorContext.Spawn.
	ChildGuardian() FailureReporter

	// SetReadyNotify installs the hook the cell's mailbox invokes after
	// every successful enqueue, letting the scheduler re-register a cell
	// that idled out of the ready queue once new traffic arrives. Called
	// once, by the scheduler, at insertion time.
	SetReadyNotify(fn func())
}

// FailureReporter is the narrow view of a Guardian an ActorCell needs: the
// ability to report its own failures and have a directive applied, plus
// register a new child under the parent's naming/watch policy. Every
// *guardian.Guardian satisfies this.
type FailureReporter interface {
	NotifyFailure(child pid.ActorId, failure supervision.ActorFailure) (supervision.FailureInfo, bool)
	RegisterChild(naming supervision.ChildNaming, control mailbox.ControlSender, watcher *pid.ActorId) (pid.ActorId, error)
	ChildPath(id pid.ActorId) (pid.ActorPath, bool)
}

// ChildSpawnSpec is a type-erased "build and register this child" closure.
// It is produced by a typed helper (Spawn[M]) that captures the child's
// concrete message type in its closure body, and consumed by the scheduler
// when draining a parent cell's pending spawns.
//
// The spec function is handed the parent's own Guardian (so naming/watch
// policy is applied in the parent's namespace; the child's fully-qualified
// path is the one that guardian records at registration), and returns the new
// child's ActorId plus its CellHandle for insertion into the scheduler's
// slab.
type ChildSpawnSpec func(parentGuardian FailureReporter) (pid.ActorId, CellHandle, error)
