package guardian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/pid"
	"github.com/arcrun/actorcore/supervision"
)

type recordingControl struct {
	sent []mailbox.SystemMessage
}

func (r *recordingControl) SendSystem(msg mailbox.SystemMessage) error {
	r.sent = append(r.sent, msg)
	return nil
}

func newGuardian(directive supervision.Directive) *Guardian {
	return New(pid.RootPath(), supervision.StaticStrategy{Directive: directive})
}

func TestGuardian_AutoNamingAssignsNoName(t *testing.T) {
	g := newGuardian(supervision.Resume)

	id, err := g.RegisterChild(supervision.AutoNaming, &recordingControl{}, nil)
	require.NoError(t, err)
	assert.Equal(t, pid.ActorId(0), id)

	path, ok := g.ChildPath(id)
	require.True(t, ok)
	assert.Equal(t, []pid.ActorId{0}, path.Segments())
}

func TestGuardian_PrefixNamingFindsUniqueSuffix(t *testing.T) {
	g := newGuardian(supervision.Resume)

	id0, err := g.RegisterChild(supervision.PrefixNaming{Prefix: "worker"}, &recordingControl{}, nil)
	require.NoError(t, err)
	id1, err := g.RegisterChild(supervision.PrefixNaming{Prefix: "worker"}, &recordingControl{}, nil)
	require.NoError(t, err)

	found0, ok := g.Lookup("worker-0")
	require.True(t, ok)
	assert.Equal(t, id0, found0)

	found1, ok := g.Lookup("worker-1")
	require.True(t, ok)
	assert.Equal(t, id1, found1)
}

func TestGuardian_ExplicitNamingRejectsDuplicate(t *testing.T) {
	g := newGuardian(supervision.Resume)

	_, err := g.RegisterChild(supervision.ExplicitNaming{Name: "singleton"}, &recordingControl{}, nil)
	require.NoError(t, err)

	_, err = g.RegisterChild(supervision.ExplicitNaming{Name: "singleton"}, &recordingControl{}, nil)
	require.Error(t, err)

	var spawnErr SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, NameExists, spawnErr.Kind)
}

func TestGuardian_RegisterWithWatcherEnqueuesWatch(t *testing.T) {
	g := newGuardian(supervision.Resume)
	control := &recordingControl{}
	watcher := pid.ActorId(99)

	_, err := g.RegisterChild(supervision.AutoNaming, control, &watcher)
	require.NoError(t, err)

	require.Len(t, control.sent, 1)
	assert.Equal(t, mailbox.Watch(watcher), control.sent[0])
}

func TestGuardian_NotifyFailure_StopDirective(t *testing.T) {
	g := newGuardian(supervision.Stop)
	control := &recordingControl{}

	id, err := g.RegisterChild(supervision.AutoNaming, control, nil)
	require.NoError(t, err)

	_, escalated := g.NotifyFailure(id, supervision.NewActorFailure(errBoom{}))
	assert.False(t, escalated)
	require.Len(t, control.sent, 1)
	assert.Equal(t, mailbox.Stop, control.sent[0])
}

func TestGuardian_NotifyFailure_RestartDirectiveCallsAfterRestart(t *testing.T) {
	strategy := supervision.NewRestartBackoffStrategy(3, 0)
	g := New(pid.RootPath(), strategy)
	control := &recordingControl{}

	id, err := g.RegisterChild(supervision.AutoNaming, control, nil)
	require.NoError(t, err)

	strategy.Window = 1 << 40 // effectively never expires for this test

	_, escalated := g.NotifyFailure(id, supervision.NewActorFailure(errBoom{}))
	assert.False(t, escalated)
	require.Len(t, control.sent, 1)
	assert.Equal(t, mailbox.Restart, control.sent[0])
	assert.Equal(t, 1, strategy.RestartCount(id))
}

func TestGuardian_NotifyFailure_EscalateReturnsParentFailureInfo(t *testing.T) {
	g := newGuardian(supervision.Escalate)
	control := &recordingControl{}

	id, err := g.RegisterChild(supervision.AutoNaming, control, nil)
	require.NoError(t, err)

	info, escalated := g.NotifyFailure(id, supervision.NewActorFailure(errBoom{}))
	require.True(t, escalated)
	assert.Equal(t, pid.RootPath(), info.Path)
	assert.Equal(t, supervision.EscalationStage(1), info.Stage)

	assert.Empty(t, control.sent)
}

func TestGuardian_NotifyFailure_EscalateFromNestedGuardian(t *testing.T) {
	g := New(pid.RootPath().PushChild(1), supervision.StaticStrategy{Directive: supervision.Escalate})
	control := &recordingControl{}

	id, err := g.RegisterChild(supervision.AutoNaming, control, nil)
	require.NoError(t, err)

	// This guardian's own path has a parent (root); escalating from a
	// child of it succeeds. (A root guardian's escalation also returns
	// true, with the root path, which the scheduler hands to the root
	// escalation sink.)
	_, escalated := g.NotifyFailure(id, supervision.NewActorFailure(errBoom{}))
	assert.True(t, escalated)
}

func TestGuardian_RemoveChildEmitsUnwatch(t *testing.T) {
	g := newGuardian(supervision.Resume)
	control := &recordingControl{}
	watcher := pid.ActorId(7)

	id, err := g.RegisterChild(supervision.ExplicitNaming{Name: "child"}, control, &watcher)
	require.NoError(t, err)

	g.RemoveChild(id)

	require.Len(t, control.sent, 2)
	assert.Equal(t, mailbox.Watch(watcher), control.sent[0])
	assert.Equal(t, mailbox.Unwatch(watcher), control.sent[1])

	_, ok := g.Lookup("child")
	assert.False(t, ok)
	assert.Equal(t, 0, g.ChildCount())
}

func TestGuardian_StopRejectsFurtherRegistrations(t *testing.T) {
	g := newGuardian(supervision.Resume)
	handles := g.Stop()
	assert.Empty(t, handles)

	_, err := g.RegisterChild(supervision.AutoNaming, &recordingControl{}, nil)
	require.Error(t, err)

	var spawnErr SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, GuardianStopped, spawnErr.Kind)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
