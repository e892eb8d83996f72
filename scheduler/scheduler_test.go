package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/supervision"
)

type orderBehavior struct {
	id    int
	order *[]int
}

func (b *orderBehavior) Receive(ctx *ActorContext[int], msg int) error { return nil }
func (b *orderBehavior) OnRestart(ctx context.Context)                 { *b.order = append(*b.order, b.id) }

func newTestScheduler(rootStrategy supervision.Strategy, sink RootEscalationSink, metrics mailbox.MetricsSink) *ReadyQueueScheduler {
	return NewReadyQueueScheduler(rootStrategy, NewReadyQueueCoordinator(), sink, metrics, nil)
}

// TestScheduler_FIFODrainAcrossRootCells exercises spec.md §8 scenario 5 at
// the scheduler level: cells become ready in spawn order (each gets its
// Start envelope queued immediately), and DispatchNext drains them in that
// same order.
func TestScheduler_FIFODrainAcrossRootCells(t *testing.T) {
	s := newTestScheduler(supervision.StaticStrategy{Directive: supervision.Resume}, RootEscalationSink{}, nil)

	var order []int
	for i := 0; i < 3; i++ {
		props := Props[int]{Behavior: &orderBehavior{id: i, order: &order}, Naming: supervision.AutoNaming}
		_, _, err := SpawnRootTyped(s, props)
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		more, err := s.DispatchNext(context.Background())
		require.NoError(t, err)
		require.True(t, more)
	}

	assert.Equal(t, []int{0, 1, 2}, order)
}

// TestScheduler_StaleIndexSkippedAfterRecycle exercises spec.md §5's
// generation-based staleness rule: once a cell's slot has been recycled, a
// lingering ready registration for its old MailboxIndex must be a no-op
// rather than touching the freed slot.
func TestScheduler_StaleIndexSkippedAfterRecycle(t *testing.T) {
	s := newTestScheduler(supervision.StaticStrategy{Directive: supervision.Resume}, RootEscalationSink{}, nil)

	props := Props[int]{Behavior: noopBehavior{}, Naming: supervision.AutoNaming}
	id, mb, err := SpawnRootTyped(s, props)
	require.NoError(t, err)

	require.NoError(t, mb.SendSystem(mailbox.Stop))

	// Both Start and Stop are already queued, so a single DispatchStep
	// batch drains them both and recycles the slot.
	_, err = s.DispatchNext(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, s.CellCount())

	_, ok := s.Resolve(id)
	assert.False(t, ok)

	// A stale re-registration of the first (and only) slot must be
	// ignored rather than dispatching against the freed entry.
	s.coordinator.RegisterReady(MailboxIndex{Slot: 0, Generation: 0})
	more, err := s.DispatchNext(context.Background())
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, 0, s.CellCount())
}

// TestScheduler_RootEscalationOrdering exercises spec.md §7's root
// escalation rule: Telemetry, then Handler, then Listener, each invoked
// exactly once, with a TelemetryInvoked metrics event recorded alongside.
func TestScheduler_RootEscalationOrdering(t *testing.T) {
	var calls []string
	var gotInfo []supervision.FailureInfo

	sink := RootEscalationSink{
		Telemetry: func(info supervision.FailureInfo) { calls = append(calls, "telemetry"); gotInfo = append(gotInfo, info) },
		Handler:   func(info supervision.FailureInfo) { calls = append(calls, "handler") },
		Listener:  func(info supervision.FailureInfo) { calls = append(calls, "listener") },
	}

	var events []mailbox.MetricsEvent
	metrics := mailbox.MetricsSinkFunc(func(e mailbox.MetricsEvent) { events = append(events, e) })

	s := newTestScheduler(supervision.StaticStrategy{Directive: supervision.Escalate}, sink, metrics)

	boom := errors.New("boom")
	props := Props[int]{Behavior: errBehavior{err: boom}, Naming: supervision.AutoNaming}
	_, mb, err := SpawnRootTyped(s, props)
	require.NoError(t, err)

	require.NoError(t, mb.TrySend(mailbox.NewEnvelope(1, mailbox.DefaultPriority)))

	_, err = s.DispatchNext(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"telemetry", "handler", "listener"}, calls)
	require.Len(t, gotInfo, 1)
	assert.ErrorIs(t, gotInfo[0].Failure, boom)

	var sawTelemetry bool
	for _, e := range events {
		if _, ok := e.(mailbox.TelemetryInvoked); ok {
			sawTelemetry = true
		}
	}
	assert.True(t, sawTelemetry)
}

// TestScheduler_RunStopsOnShutdown exercises spec.md §4.6: an idle Run
// blocked on the coordinator returns once Shutdown is triggered.
func TestScheduler_RunStopsOnShutdown(t *testing.T) {
	s := newTestScheduler(supervision.StaticStrategy{Directive: supervision.Resume}, RootEscalationSink{}, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	s.Shutdown().Trigger()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

// TestScheduler_RunWakesIdleCellOnLateSend exercises spec.md §2/§4.3's
// notify_ready requirement: a cell that has already drained its Start
// envelope and idled out of the ready queue must still process a message
// sent to its mailbox afterward, via the ready-notify hook installed at
// insertion time.
func TestScheduler_RunWakesIdleCellOnLateSend(t *testing.T) {
	s := newTestScheduler(supervision.StaticStrategy{Directive: supervision.Resume}, RootEscalationSink{}, nil)

	var mu sync.Mutex
	var got []int
	behavior := BehaviorFunc[int](func(ctx *ActorContext[int], msg int) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg)
		return nil
	})

	props := Props[int]{Behavior: behavior, Naming: supervision.AutoNaming}
	_, mb, err := SpawnRootTyped(s, props)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	// Let Run drain the Start envelope and block on the coordinator.
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, mb.TrySend(mailbox.NewEnvelope(42, mailbox.DefaultPriority)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []int{42}, got)
	mu.Unlock()

	s.Shutdown().Trigger()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

// TestRunWorkers_FansOutAndStopsWhenEachShutsDown exercises spec.md §5: many
// scheduler instances can be driven concurrently by one RunWorkers call, and
// RunWorkers returns once every scheduler's own shutdown token (each
// scheduler has its own) has been triggered.
func TestRunWorkers_FansOutAndStopsWhenEachShutsDown(t *testing.T) {
	s1 := newTestScheduler(supervision.StaticStrategy{Directive: supervision.Resume}, RootEscalationSink{}, nil)
	s2 := newTestScheduler(supervision.StaticStrategy{Directive: supervision.Resume}, RootEscalationSink{}, nil)

	done := make(chan error, 1)
	go func() { done <- RunWorkers(context.Background(), []*ReadyQueueScheduler{s1, s2}) }()

	time.Sleep(10 * time.Millisecond)
	s1.Shutdown().Trigger()
	s2.Shutdown().Trigger()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RunWorkers did not return after both schedulers were shut down")
	}
}
