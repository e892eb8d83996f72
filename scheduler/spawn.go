package scheduler

import (
	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/pid"
	"github.com/arcrun/actorcore/supervision"
)

// Props describes how to build one actor: its behavior, mailbox options,
// child supervision strategy, naming policy, and whether the spawning actor
// wants to watch it. This is the Go realization of spec.md §6's Spawn API
// (spawn/spawn_prefix/spawn_named all funnel through here, differing only
// in Naming).
type Props[M any] struct {
	Behavior       Behavior[M]
	MailboxOptions mailbox.MailboxOptions
	Metrics        mailbox.MetricsSink
	ChildStrategy  supervision.Strategy
	Naming         supervision.ChildNaming
	// Watcher, if non-nil, is registered with the guardian so the new
	// child receives a Watch(*Watcher) control envelope as its first
	// traffic, ahead of Start.
	Watcher *pid.ActorId
}

// Spawn builds a ChildSpawnSpec for a child actor described by props. The
// returned spec is type-erased: appending it to an ActorContext's pending
// spawns (or a scheduler's initial-actor list) never requires the caller to
// know M beyond this call site.
func Spawn[M any](
	props Props[M],
	deadLetter DeadLetterFunc,
	resolve func(pid.ActorId) (mailbox.ControlSender, bool),
) ChildSpawnSpec {
	return func(parentGuardian FailureReporter) (pid.ActorId, CellHandle, error) {
		opts := props.MailboxOptions
		mb := mailbox.NewMailbox[M](opts, props.Metrics)

		id, err := parentGuardian.RegisterChild(props.Naming, mb, props.Watcher)
		if err != nil {
			return 0, nil, err
		}

		strategy := props.ChildStrategy
		if strategy == nil {
			strategy = supervision.StaticStrategy{Directive: supervision.Resume}
		}

		path, ok := parentGuardian.ChildPath(id)
		if !ok {
			// RegisterChild just succeeded, so this is unreachable in
			// practice; fall back to a root-relative path rather than
			// panicking.
			path = pid.RootPath().PushChild(id)
		}

		cell := NewActorCell[M](
			id, path, props.Behavior, mb, parentGuardian, strategy, deadLetter, resolve,
		)

		if err := mb.SendSystem(mailbox.Start); err != nil {
			log.Warnf("spawn: failed to enqueue start for %s: %v", id, err)
		}

		return id, cell, nil
	}
}

// SpawnRootTyped builds and inserts a parentless actor directly under s's
// root guardian, returning its mailbox alongside its ActorId. This is the
// root-specific counterpart to Spawn: Spawn must erase M because a child
// spawned mid-dispatch is appended to an untyped pending-spawns buffer, but
// a root spawn has nowhere else to hand the mailbox off to, so the external
// typed layer (actorcore.Spawn) needs it back directly.
func SpawnRootTyped[M any](s *ReadyQueueScheduler, props Props[M]) (pid.ActorId, *mailbox.Mailbox[M], error) {
	mb := mailbox.NewMailbox[M](props.MailboxOptions, props.Metrics)

	id, err := s.root.RegisterChild(props.Naming, mb, props.Watcher)
	if err != nil {
		return 0, nil, err
	}

	strategy := props.ChildStrategy
	if strategy == nil {
		strategy = supervision.StaticStrategy{Directive: supervision.Resume}
	}

	path, ok := s.root.ChildPath(id)
	if !ok {
		path = pid.RootPath().PushChild(id)
	}

	cell := NewActorCell[M](id, path, props.Behavior, mb, s.root, strategy, s.deadLetter, s.Resolve)

	if err := mb.SendSystem(mailbox.Start); err != nil {
		log.Warnf("spawn: failed to enqueue start for %s: %v", id, err)
	}

	s.insert(cell)

	return id, mb, nil
}
