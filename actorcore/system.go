package actorcore

import (
	"context"

	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/pid"
	"github.com/arcrun/actorcore/registry"
	"github.com/arcrun/actorcore/scheduler"
	"github.com/arcrun/actorcore/supervision"
)

// ActorSystem is the externally usable entry point spec.md §6 describes as
// "the external typed layer": one ReadyQueueScheduler, its ProcessRegistry
// and DeadLetterHub, wired together and ready to drive.
type ActorSystem struct {
	cfg         Config
	scheduler   *scheduler.ReadyQueueScheduler
	registry    *registry.ProcessRegistry
	deadLetters *registry.DeadLetterHub
}

// NewActorSystem builds an ActorSystem from cfg, applying DefaultConfig's
// choices for any zero-valued field that needs one.
func NewActorSystem(cfg Config) *ActorSystem {
	if cfg.System == "" {
		cfg.System = "actorcore"
	}
	if cfg.RootStrategy == nil {
		cfg.RootStrategy = supervision.StaticStrategy{Directive: supervision.Escalate}
	}
	if cfg.Coordinator == nil {
		cfg.Coordinator = scheduler.NewReadyQueueCoordinator()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = mailbox.NoopMetricsSink{}
	}

	hub := registry.NewDeadLetterHub()
	reg := registry.NewProcessRegistry(cfg.System, hub)

	sink := scheduler.RootEscalationSink{
		Telemetry: cfg.RootTelemetry,
		Handler:   cfg.RootHandler,
		Listener:  cfg.RootListener,
	}

	sys := &ActorSystem{cfg: cfg, registry: reg, deadLetters: hub}

	sys.scheduler = scheduler.NewReadyQueueScheduler(
		cfg.RootStrategy, cfg.Coordinator, sink, cfg.Metrics, sys.routeDeadLetter,
	)

	return sys
}

// routeDeadLetter adapts the scheduler's DeadLetterFunc signature (a system
// envelope that couldn't be delivered because its target cell was already
// recycled) into a registry.DeadLetter, addressed at target's Pid within
// this system.
func (s *ActorSystem) routeDeadLetter(target pid.ActorId, msg mailbox.SystemMessage) {
	s.deadLetters.Route(pid.New(s.cfg.System, pid.RootPath().PushChild(target)), msg, registry.Terminated)
}

// DeadLetters exposes the system's dead-letter hub for subscription.
func (s *ActorSystem) DeadLetters() *registry.DeadLetterHub { return s.deadLetters }

// Registry exposes the system's ProcessRegistry.
func (s *ActorSystem) Registry() *registry.ProcessRegistry { return s.registry }

// Run drives the scheduler's drain loop until ctx is cancelled or Shutdown
// is called.
func (s *ActorSystem) Run(ctx context.Context) error {
	return s.scheduler.Run(ctx)
}

// Shutdown triggers the scheduler's shutdown token, causing Run to return
// once the batch in progress completes; ready work still queued is not
// dispatched.
func (s *ActorSystem) Shutdown() {
	s.scheduler.Shutdown().Trigger()
}

// ActorRef is the external, typed handle to a spawned actor: enough to
// address it by Pid and enqueue messages without touching scheduler
// internals.
type ActorRef[M any] struct {
	id     pid.ActorId
	path   pid.ActorPath
	system string
	mb     *mailbox.Mailbox[M]
}

// ID returns the actor's ActorId, unique within this system instance.
func (r ActorRef[M]) ID() pid.ActorId { return r.id }

// Path returns the actor's fully qualified path.
func (r ActorRef[M]) Path() pid.ActorPath { return r.path }

// Pid renders the actor's globally addressable Pid.
func (r ActorRef[M]) Pid() pid.Pid { return pid.New(r.system, r.path) }

// Tell enqueues msg onto the actor's regular lane at the given priority
// without blocking, applying the mailbox's overflow policy.
func (r ActorRef[M]) Tell(msg M, priority int8) error {
	return r.mb.TrySend(mailbox.NewEnvelope(msg, priority))
}

// Send enqueues msg, blocking under a Block overflow policy until room
// frees up or ctx is cancelled.
func (r ActorRef[M]) Send(ctx context.Context, msg M, priority int8) error {
	return r.mb.Send(ctx, mailbox.NewEnvelope(msg, priority))
}

// Mailbox exposes the underlying typed mailbox, e.g. to build a
// registry.ActorRef or an actorutil.Pool member from this ref.
func (r ActorRef[M]) Mailbox() *mailbox.Mailbox[M] { return r.mb }

func spawn[M any](s *ActorSystem, props scheduler.Props[M]) (ActorRef[M], error) {
	id, mb, err := scheduler.SpawnRootTyped(s.scheduler, props)
	if err != nil {
		return ActorRef[M]{}, wrapSpawnError[M](err)
	}

	path, _ := s.scheduler.RootGuardian().ChildPath(id)

	ref := ActorRef[M]{id: id, path: path, system: s.cfg.System, mb: mb}
	s.registry.Register(registry.NewLocalRef[M](ref.Pid(), mb))

	return ref, nil
}

// Spawn creates a top-level actor from props, naming it automatically, per
// spec.md §6's spawn(props).
func Spawn[M any](s *ActorSystem, props scheduler.Props[M]) (ActorRef[M], error) {
	props.Naming = supervision.AutoNaming
	return spawn(s, props)
}

// SpawnPrefix creates a top-level actor named with an incrementing
// counter under prefix, per spec.md §6's spawn_prefix(props, prefix).
func SpawnPrefix[M any](s *ActorSystem, props scheduler.Props[M], prefix string) (ActorRef[M], error) {
	props.Naming = supervision.PrefixNaming{Prefix: prefix}
	return spawn(s, props)
}

// SpawnNamed creates a top-level actor under the exact name given, failing
// with SpawnError{Kind: NameExists} if a sibling already holds it, per
// spec.md §6's spawn_named(props, name).
func SpawnNamed[M any](s *ActorSystem, props scheduler.Props[M], name string) (ActorRef[M], error) {
	props.Naming = supervision.ExplicitNaming{Name: name}
	return spawn(s, props)
}

// ChildSpawnSpec builds a scheduler.ChildSpawnSpec bound to s's dead-letter
// routing and cell resolution, for use from inside a running Behavior via
// ActorContext.Spawn. Unlike Spawn/SpawnPrefix/SpawnNamed, this does not
// register the child in s's ProcessRegistry directly, since the child's
// ActorId (and therefore its Pid) is not known until the scheduler actually
// carries out the spawn; a Behavior that needs the registry entry should
// register it from within its own OnStart-equivalent setup using
// ActorContext.Self().
func ChildSpawnSpec[M any](s *ActorSystem, props scheduler.Props[M]) scheduler.ChildSpawnSpec {
	return scheduler.Spawn[M](props, s.routeDeadLetter, s.scheduler.Resolve)
}
