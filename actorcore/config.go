package actorcore

import (
	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/scheduler"
	"github.com/arcrun/actorcore/supervision"
)

// Config bundles an ActorSystem's configuration surface. Per spec.md §6's
// "no CLI; the core is a library" note, there is no config-file or flag
// parsing here: a host binary built on top owns that, and simply
// constructs a Config with the values it decided on.
type Config struct {
	// System names this actor system instance; it is stamped into every
	// Pid this system mints and used by the ProcessRegistry to
	// distinguish local addresses from Remote ones.
	System string

	// RootStrategy governs directives for top-level (parentless) actors.
	// Defaults to StaticStrategy{Directive: Escalate} so an unhandled
	// top-level failure always reaches the root escalation sink rather
	// than silently resuming.
	RootStrategy supervision.Strategy

	// Coordinator backs the scheduler's ready queue. Defaults to the
	// mutex-guarded ReadyQueueCoordinator; pass a *scheduler.
	// LockFreeCoordinator for the lock-free alternative.
	Coordinator scheduler.Coordinator

	// Metrics receives every MetricsEvent emitted by mailboxes spawned
	// through this system. Defaults to a no-op sink.
	Metrics mailbox.MetricsSink

	// RootTelemetry, RootHandler, and RootListener populate the
	// scheduler's RootEscalationSink, fired in that order per spec.md
	// §7's root-escalation ordering rule.
	RootTelemetry func(info supervision.FailureInfo)
	RootHandler   func(info supervision.FailureInfo)
	RootListener  func(info supervision.FailureInfo)
}

// DefaultConfig returns a Config for the named system with an
// always-escalate root strategy, the mutex-based coordinator, and a no-op
// metrics sink.
func DefaultConfig(system string) Config {
	return Config{
		System:       system,
		RootStrategy: supervision.StaticStrategy{Directive: supervision.Escalate},
		Coordinator:  scheduler.NewReadyQueueCoordinator(),
		Metrics:      mailbox.NoopMetricsSink{},
	}
}
