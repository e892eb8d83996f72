package scheduler

import (
	"context"
	"sync"

	"github.com/arcrun/actorcore/guardian"
	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/pid"
	"github.com/arcrun/actorcore/supervision"
)

// DeadLetterFunc receives system envelopes that could not be delivered
// because their target cell had already stopped (spec.md §4.4 step 1).
type DeadLetterFunc func(target pid.ActorId, msg mailbox.SystemMessage)

// ActorCell owns one actor's handler, mailbox, supervisor reference, watcher
// set and pending-spawn buffer, per spec.md §3. It is created by a parent's
// guardian registration and mutated only by the scheduler's drain loop
// while its index is "running" — see spec.md §5's single-writer contract.
type ActorCell[M any] struct {
	id       pid.ActorId
	path     pid.ActorPath
	behavior Behavior[M]
	mb       *mailbox.Mailbox[M]

	// supervisor is the parent's guardian: the cell reports its own
	// failures here, keyed by its own id.
	supervisor FailureReporter

	// children is this cell's own guardian, used when its Behavior spawns
	// new actors via ActorContext.Spawn.
	children *guardian.Guardian

	watchersMu sync.Mutex
	watchers   map[pid.ActorId]struct{}

	pendingSpawns []ChildSpawnSpec
	escalations   []supervision.FailureInfo

	currentPriority *int8
	stopped         bool

	extensions map[string]any

	deadLetter DeadLetterFunc

	// resolve looks up another cell's control-lane handle by ActorId, so
	// this cell can deliver Terminated to watchers registered on it. It
	// is wired by the scheduler at construction time, since only the
	// scheduler's slab knows every live cell in the system.
	resolve func(pid.ActorId) (mailbox.ControlSender, bool)
}

// NewActorCell constructs a cell. strategy governs the cell's own guardian,
// i.e. the supervision policy it applies to children it spawns — distinct
// from supervisor, which is how failures of *this* cell are handled by its
// parent.
func NewActorCell[M any](
	id pid.ActorId,
	path pid.ActorPath,
	behavior Behavior[M],
	mb *mailbox.Mailbox[M],
	supervisor FailureReporter,
	strategy supervision.Strategy,
	deadLetter DeadLetterFunc,
	resolve func(pid.ActorId) (mailbox.ControlSender, bool),
) *ActorCell[M] {
	return &ActorCell[M]{
		id:         id,
		path:       path,
		behavior:   behavior,
		mb:         mb,
		supervisor: supervisor,
		children:   guardian.New(path, strategy),
		watchers:   make(map[pid.ActorId]struct{}),
		extensions: make(map[string]any),
		deadLetter: deadLetter,
		resolve:    resolve,
	}
}

// ID implements CellHandle.
func (c *ActorCell[M]) ID() pid.ActorId { return c.id }

// Path implements CellHandle.
func (c *ActorCell[M]) Path() pid.ActorPath { return c.path }

// Stopped implements CellHandle.
func (c *ActorCell[M]) Stopped() bool { return c.stopped }

// ControlLane implements CellHandle.
func (c *ActorCell[M]) ControlLane() mailbox.ControlSender { return c.mb }

// Children exposes this cell's own guardian, e.g. for an actorutil.Pool
// built from children spawned under it.
func (c *ActorCell[M]) Children() *guardian.Guardian { return c.children }

// ChildGuardian implements CellHandle.
func (c *ActorCell[M]) ChildGuardian() FailureReporter { return c.children }

// SetReadyNotify implements CellHandle.
func (c *ActorCell[M]) SetReadyNotify(fn func()) { c.mb.SetReadyNotify(fn) }

// TakePendingSpawns implements CellHandle.
func (c *ActorCell[M]) TakePendingSpawns() []ChildSpawnSpec {
	out := c.pendingSpawns
	c.pendingSpawns = nil

	return out
}

// TakeEscalations implements CellHandle.
func (c *ActorCell[M]) TakeEscalations() []supervision.FailureInfo {
	out := c.escalations
	c.escalations = nil

	return out
}

func (c *ActorCell[M]) watcherList() []pid.ActorId {
	c.watchersMu.Lock()
	defer c.watchersMu.Unlock()

	out := make([]pid.ActorId, 0, len(c.watchers))
	for w := range c.watchers {
		out = append(out, w)
	}

	return out
}

// DispatchStep implements CellHandle, running spec.md §4.4's per-envelope
// state machine for up to throughput envelopes (or ThroughputHint() if <=0).
func (c *ActorCell[M]) DispatchStep(throughput int) (result InvokeResult) {
	if throughput <= 0 {
		throughput = ThroughputHint()
	}

	defer func() {
		if r := recover(); r != nil {
			failure := supervision.FromPanicPayload(r)
			log.Errorf("actorcell: recovered panic in %s: %v", c.id, failure)
			c.reportFailure(failure)
			result = Completed{ReadyHint: c.mb.Len() > 0}
		}
	}()

	for i := 0; i < throughput; i++ {
		env, ok := c.mb.TryReceive()
		if !ok {
			break
		}

		if c.stopped {
			if sys, isSys := env.System(); isSys {
				if c.deadLetter != nil {
					c.deadLetter(c.id, sys)
				}
			}

			continue
		}

		if sys, isSys := env.System(); isSys {
			c.handleSystem(sys)

			continue
		}

		user, _ := env.User()
		c.dispatchUser(user)
	}

	if c.stopped {
		return Stopped{}
	}

	return Completed{ReadyHint: c.mb.Len() > 0}
}

func (c *ActorCell[M]) dispatchUser(env mailbox.PriorityEnvelope[M]) {
	priority := env.Priority()
	c.currentPriority = &priority

	ctx := &ActorContext[M]{ctx: context.Background(), cell: c}

	err := c.behavior.Receive(ctx, env.Message())
	if err != nil {
		c.reportFailure(supervision.NewActorFailure(err))
	}

	c.currentPriority = nil
}

func (c *ActorCell[M]) reportFailure(failure supervision.ActorFailure) {
	if c.supervisor == nil {
		log.Warnf("actorcell: %s failed with no supervisor, dropping: %v", c.id, failure)

		return
	}

	info, escalate := c.supervisor.NotifyFailure(c.id, failure)
	if escalate {
		c.escalations = append(c.escalations, info)
	}
}

func (c *ActorCell[M]) handleSystem(msg mailbox.SystemMessage) {
	switch m := msg.(type) {
	case mailbox.WatchMessage:
		c.watchersMu.Lock()
		c.watchers[m.Watched] = struct{}{}
		c.watchersMu.Unlock()

	case mailbox.UnwatchMessage:
		c.watchersMu.Lock()
		delete(c.watchers, m.Watched)
		c.watchersMu.Unlock()

	case mailbox.TerminatedMessage:
		if aware, ok := c.behavior.(TerminationAware); ok {
			aware.OnTerminated(m.Actor)
		}

	case mailbox.EscalateMessage:
		// This cell's own supervisor re-evaluates the bubbled-up
		// failure one level higher, per spec.md §4.4 step 2: the
		// handler is never invoked for escalation traffic.
		c.reportFailure(m.Info.Failure)

	default:
		switch msg {
		case mailbox.Start:
			if restartable, ok := c.behavior.(Restartable); ok {
				restartable.OnRestart(context.Background())
			}

		case mailbox.Restart:
			if restartable, ok := c.behavior.(Restartable); ok {
				restartable.OnRestart(context.Background())
			}

		case mailbox.Stop:
			c.handleStop()

		case mailbox.ReceiveTimeout:
			// No-op at the core level; an external receive-timeout
			// driver (out of scope per spec.md §1) decides what,
			// if anything, to do with idle cells.
		}
	}
}

func (c *ActorCell[M]) handleStop() {
	c.stopped = true

	for _, childControl := range c.children.Stop() {
		if err := childControl.SendSystem(mailbox.Stop); err != nil {
			log.Warnf("actorcell: %s failed to stop child: %v", c.id, err)
		}
	}

	if stoppable, ok := c.behavior.(Stoppable); ok {
		if err := stoppable.OnStop(context.Background()); err != nil {
			log.Warnf("actorcell: %s OnStop returned error: %v", c.id, err)
		}
	}

	for _, watcher := range c.watcherList() {
		if c.resolve == nil {
			continue
		}

		control, ok := c.resolve(watcher)
		if !ok {
			continue
		}

		if err := control.SendSystem(mailbox.Terminated(c.id)); err != nil {
			log.Warnf("actorcell: %s failed to notify watcher %s: %v", c.id, watcher, err)
		}
	}
}

// Mailbox exposes the cell's mailbox so a constructing caller (e.g. Spawn)
// can install its initial Start envelope and so external code can build an
// ActorRef-style wrapper around Send/TrySend.
func (c *ActorCell[M]) Mailbox() *mailbox.Mailbox[M] { return c.mb }
