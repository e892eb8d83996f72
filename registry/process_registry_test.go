package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/pid"
)

type fakeRef struct {
	target  pid.Pid
	tellErr error
}

func (f *fakeRef) Pid() pid.Pid                      { return f.target }
func (f *fakeRef) Tell(msg any, priority int8) error { return f.tellErr }
func (f *fakeRef) Control() mailbox.ControlSender    { return nil }

func localPid(system string, seg pid.ActorId) pid.Pid {
	return pid.New(system, pid.RootPath().PushChild(seg))
}

func TestProcessRegistry_ResolveClassifiesLocalRemoteUnresolved(t *testing.T) {
	reg := NewProcessRegistry("sys", NewDeadLetterHub())

	local := localPid("sys", 1)
	ref := &fakeRef{target: local}
	reg.Register(ref)

	got, resolution := reg.Resolve(local)
	assert.Equal(t, Local, resolution)
	assert.Same(t, ref, got)

	_, resolution = reg.Resolve(localPid("other-sys", 1))
	assert.Equal(t, Remote, resolution)

	_, resolution = reg.Resolve(localPid("sys", 99))
	assert.Equal(t, Unresolved, resolution)
}

func TestProcessRegistry_UnregisterTombstonesRatherThanDeletes(t *testing.T) {
	reg := NewProcessRegistry("sys", NewDeadLetterHub())

	target := localPid("sys", 1)
	reg.Register(&fakeRef{target: target})
	reg.Unregister(target)

	_, resolution := reg.Resolve(target)
	assert.Equal(t, Unresolved, resolution)
}

func TestProcessRegistry_ResolveOrDeadLetter_LocalSuccess(t *testing.T) {
	hub := NewDeadLetterHub()
	var letters []DeadLetter
	hub.Subscribe(func(l DeadLetter) { letters = append(letters, l) })

	reg := NewProcessRegistry("sys", hub)
	target := localPid("sys", 1)
	reg.Register(&fakeRef{target: target})

	err := reg.ResolveOrDeadLetter(target, "hello", 4)
	require.NoError(t, err)
	assert.Empty(t, letters)
}

func TestProcessRegistry_ResolveOrDeadLetter_DeliveryRejected(t *testing.T) {
	hub := NewDeadLetterHub()
	var letters []DeadLetter
	hub.Subscribe(func(l DeadLetter) { letters = append(letters, l) })

	reg := NewProcessRegistry("sys", hub)
	target := localPid("sys", 1)
	boom := errors.New("mailbox closed")
	reg.Register(&fakeRef{target: target, tellErr: boom})

	err := reg.ResolveOrDeadLetter(target, "hello", 4)
	require.Error(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, DeliveryRejected, letters[0].Reason)
	assert.Equal(t, target, letters[0].Pid)
}

func TestProcessRegistry_ResolveOrDeadLetter_NetworkUnreachable(t *testing.T) {
	hub := NewDeadLetterHub()
	var letters []DeadLetter
	hub.Subscribe(func(l DeadLetter) { letters = append(letters, l) })

	reg := NewProcessRegistry("sys", hub)
	target := localPid("other-sys", 1)

	err := reg.ResolveOrDeadLetter(target, "hello", 4)
	require.Error(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, NetworkUnreachable, letters[0].Reason)
}

func TestProcessRegistry_ResolveOrDeadLetter_UnregisteredPid(t *testing.T) {
	hub := NewDeadLetterHub()
	var letters []DeadLetter
	hub.Subscribe(func(l DeadLetter) { letters = append(letters, l) })

	reg := NewProcessRegistry("sys", hub)
	target := localPid("sys", 1)

	err := reg.ResolveOrDeadLetter(target, "hello", 4)
	require.Error(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, UnregisteredPid, letters[0].Reason)
}

func TestProcessRegistry_ResolveOrDeadLetter_Terminated(t *testing.T) {
	hub := NewDeadLetterHub()
	var letters []DeadLetter
	hub.Subscribe(func(l DeadLetter) { letters = append(letters, l) })

	reg := NewProcessRegistry("sys", hub)
	target := localPid("sys", 1)
	reg.Register(&fakeRef{target: target})
	reg.Unregister(target)

	err := reg.ResolveOrDeadLetter(target, "hello", 4)
	require.Error(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, Terminated, letters[0].Reason)
}
