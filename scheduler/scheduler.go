package scheduler

import (
	"context"
	"sync"

	"github.com/arcrun/actorcore/guardian"
	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/pid"
	"github.com/arcrun/actorcore/supervision"
)

type slotEntry struct {
	cell       CellHandle
	generation int
	active     bool
}

// ReadyQueueScheduler is the single-threaded drain loop described by
// spec.md §4.6: it exclusively owns a slab of cells (indexed by
// MailboxIndex.Slot), wires them to a Coordinator, and applies the root
// escalation sink to any FailureInfo that reaches the top of the
// supervision tree. Multiple instances may run concurrently, each owning a
// disjoint slab, per spec.md §5.
type ReadyQueueScheduler struct {
	coordinator Coordinator

	mu      sync.RWMutex
	slab    []slotEntry
	free    []int
	idIndex map[pid.ActorId]MailboxIndex

	root     *guardian.Guardian
	sink     RootEscalationSink
	metrics  mailbox.MetricsSink
	shutdown *ShutdownToken

	deadLetter DeadLetterFunc
}

// NewReadyQueueScheduler constructs an empty scheduler with its own root
// guardian. rootStrategy governs directives for the scheduler's top-level
// (parentless) actors.
func NewReadyQueueScheduler(
	rootStrategy supervision.Strategy,
	coordinator Coordinator,
	sink RootEscalationSink,
	metrics mailbox.MetricsSink,
	deadLetter DeadLetterFunc,
) *ReadyQueueScheduler {
	if coordinator == nil {
		coordinator = NewReadyQueueCoordinator()
	}
	if metrics == nil {
		metrics = mailbox.NoopMetricsSink{}
	}

	return &ReadyQueueScheduler{
		coordinator: coordinator,
		idIndex:     make(map[pid.ActorId]MailboxIndex),
		root:        guardian.New(pid.RootPath(), rootStrategy),
		sink:        sink,
		metrics:     metrics,
		shutdown:    NewShutdownToken(),
		deadLetter:  deadLetter,
	}
}

// Shutdown returns the scheduler's cancellation token.
func (s *ReadyQueueScheduler) Shutdown() *ShutdownToken { return s.shutdown }

// Resolve looks up a live cell's control-lane handle by ActorId, the narrow
// capability ActorCell needs to deliver Terminated to a watcher that may
// live anywhere in this scheduler's slab.
func (s *ReadyQueueScheduler) Resolve(id pid.ActorId) (mailbox.ControlSender, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.idIndex[id]
	if !ok {
		return nil, false
	}

	entry := s.slab[idx.Slot]
	if !entry.active || entry.generation != idx.Generation {
		return nil, false
	}

	return entry.cell.ControlLane(), true
}

// insert allocates a slab slot for cell, recycling a freed slot (bumping
// its generation) when available, and registers it ready.
func (s *ReadyQueueScheduler) insert(cell CellHandle) MailboxIndex {
	s.mu.Lock()

	var idx MailboxIndex
	if n := len(s.free); n > 0 {
		slot := s.free[n-1]
		s.free = s.free[:n-1]

		s.slab[slot].generation++
		s.slab[slot].cell = cell
		s.slab[slot].active = true

		idx = MailboxIndex{Slot: slot, Generation: s.slab[slot].generation}
	} else {
		slot := len(s.slab)
		s.slab = append(s.slab, slotEntry{cell: cell, active: true})

		idx = MailboxIndex{Slot: slot, Generation: 0}
	}

	s.idIndex[cell.ID()] = idx
	s.mu.Unlock()

	coordinator := s.coordinator
	cell.SetReadyNotify(func() { coordinator.RegisterReady(idx) })

	coordinator.RegisterReady(idx)

	return idx
}

func (s *ReadyQueueScheduler) recycle(idx MailboxIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.slab[idx.Slot]
	if entry.generation != idx.Generation || !entry.active {
		return
	}

	delete(s.idIndex, entry.cell.ID())
	s.slab[idx.Slot].active = false
	s.slab[idx.Slot].cell = nil
	s.free = append(s.free, idx.Slot)
}

// SpawnRoot builds and inserts a parentless actor directly under this
// scheduler's root guardian, the entry point for populating a freshly built
// ActorSystem.
func (s *ReadyQueueScheduler) SpawnRoot(spec ChildSpawnSpec) (pid.ActorId, error) {
	id, cell, err := spec(s.root)
	if err != nil {
		return 0, err
	}

	s.insert(cell)

	return id, nil
}

// DispatchNext implements one iteration of spec.md §4.6's drain loop: pop
// the next ready index (blocking on the coordinator's wake signal if none is
// ready), dispatch one batch, feed the result back, and drain both the
// spawned-children and escalation outputs. It returns (false, nil) without
// dispatching once the shutdown token is triggered; ready work still queued
// at that point is left in place.
func (s *ReadyQueueScheduler) DispatchNext(ctx context.Context) (bool, error) {
	var popped []MailboxIndex

	for {
		if s.shutdown.Triggered() {
			return false, nil
		}

		popped = s.coordinator.DrainReadyCycle(1, popped)
		if len(popped) > 0 {
			break
		}

		if s.coordinator.PollWaitSignal() {
			continue
		}

		waitCtx, cancel := context.WithCancel(ctx)
		go func() {
			select {
			case <-s.shutdown.Done():
				cancel()
			case <-waitCtx.Done():
			}
		}()

		err := s.coordinator.Wait(waitCtx)
		cancel()

		if err != nil {
			if s.shutdown.Triggered() || ctx.Err() != nil {
				return false, ctx.Err()
			}

			continue
		}
	}

	idx := popped[0]

	s.mu.RLock()
	entry := s.slab[idx.Slot]
	s.mu.RUnlock()

	if !entry.active || entry.generation != idx.Generation {
		// Stale index (cell recycled since it was queued); nothing to
		// do, matching the coordinator's lazy-unregistration contract.
		return true, nil
	}

	cell := entry.cell

	result := cell.DispatchStep(ThroughputHint())
	s.coordinator.HandleInvokeResult(idx, result)

	for _, spec := range cell.TakePendingSpawns() {
		childID, childCell, err := spec(cell.ChildGuardian())
		if err != nil {
			log.Warnf("scheduler: spawn under %s failed: %v", cell.ID(), err)

			continue
		}

		s.insert(childCell)
		log.Debugf("scheduler: spawned %s under %s", childID, cell.ID())
	}

	for _, info := range cell.TakeEscalations() {
		s.routeEscalation(info)
	}

	if _, stopped := result.(Stopped); stopped {
		s.recycle(idx)
	}

	return true, nil
}

func (s *ReadyQueueScheduler) routeEscalation(info supervision.FailureInfo) {
	if info.AtRoot() {
		s.sink.fire(info, func() {
			s.metrics.Observe(mailbox.TelemetryInvoked{})
		})

		return
	}

	segments := info.Path.Segments()
	target := segments[len(segments)-1]

	control, ok := s.Resolve(target)
	if !ok {
		log.Warnf("scheduler: escalation target %s not found, dropping: %v", target, info.Failure)

		if s.deadLetter != nil {
			s.deadLetter(target, mailbox.Escalate(info))
		}

		return
	}

	if err := control.SendSystem(mailbox.Escalate(info)); err != nil {
		log.Warnf("scheduler: failed to route escalation to %s: %v", target, err)
	}
}

// Run drives DispatchNext in a loop until ctx is cancelled or the shutdown
// token is triggered; the batch in progress at that moment completes first.
func (s *ReadyQueueScheduler) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		more, err := s.DispatchNext(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// RootGuardian exposes the scheduler's root guardian, e.g. so an
// actorcore.ActorSystem can build its top-level Spawn/SpawnNamed API
// directly atop it.
func (s *ReadyQueueScheduler) RootGuardian() *guardian.Guardian { return s.root }

// CellCount returns the number of currently active (non-recycled) cells,
// for tests and diagnostics.
func (s *ReadyQueueScheduler) CellCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.slab {
		if e.active {
			n++
		}
	}

	return n
}
