// Package actorutil collects small helpers built on top of the core
// scheduler/mailbox/guardian primitives: a round-robin Pool today, with
// room for the kind of ask-fanout helpers a host application typically
// wants next.
package actorutil

import (
	"fmt"
	"sync/atomic"

	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/pid"
)

// member is one pool slot: the address a host registered it under plus the
// typed mailbox handle needed to actually enqueue messages.
type member[M any] struct {
	id pid.ActorId
	mb *mailbox.Mailbox[M]
}

// Pool distributes messages across a set of already-spawned actors sharing
// one message type, using round-robin selection. Adapted from the
// teacher's internal/actorutil.Pool: that version owned actor lifecycle
// directly, but here spawning is the scheduler's job (Props, Spawn,
// ActorContext.Spawn), so Pool instead addresses children a caller has
// already spawned and registered under a common guardian, by ActorId.
type Pool[M any] struct {
	id      string
	members []member[M]
	next    atomic.Uint64
}

// NewPool builds a pool over ids and their corresponding mailboxes. ids and
// mailboxes must be the same length and in corresponding order; this is
// typically the result of calling a Props factory Size times and spawning
// each child through a scheduler.
func NewPool[M any](id string, ids []pid.ActorId, mailboxes []*mailbox.Mailbox[M]) (*Pool[M], error) {
	if len(ids) != len(mailboxes) {
		return nil, fmt.Errorf("actorutil: pool %q: %d ids but %d mailboxes", id, len(ids), len(mailboxes))
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("actorutil: pool %q: must have at least one member", id)
	}

	members := make([]member[M], len(ids))
	for i := range ids {
		members[i] = member[M]{id: ids[i], mb: mailboxes[i]}
	}

	return &Pool[M]{id: id, members: members}, nil
}

// ID returns the pool's identifier.
func (p *Pool[M]) ID() string { return p.id }

// Size returns the number of members in the pool.
func (p *Pool[M]) Size() int { return len(p.members) }

// Members returns the ActorId of every pool member, in registration order.
func (p *Pool[M]) Members() []pid.ActorId {
	ids := make([]pid.ActorId, len(p.members))
	for i, m := range p.members {
		ids[i] = m.id
	}

	return ids
}

func (p *Pool[M]) pick() member[M] {
	idx := p.next.Add(1) % uint64(len(p.members))
	return p.members[idx]
}

// Tell enqueues msg onto the next member in round-robin order, returning
// the chosen member's ActorId alongside any mailbox error.
func (p *Pool[M]) Tell(msg M, priority int8) (pid.ActorId, error) {
	chosen := p.pick()

	err := chosen.mb.TrySend(mailbox.NewEnvelope(msg, priority))

	return chosen.id, err
}

// Broadcast enqueues msg onto every member, returning the first error
// encountered (if any) after attempting delivery to all of them.
func (p *Pool[M]) Broadcast(msg M, priority int8) error {
	var firstErr error

	for _, m := range p.members {
		if err := m.mb.TrySend(mailbox.NewEnvelope(msg, priority)); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("actorutil: pool %q: broadcast to %s: %w", p.id, m.id, err)
		}
	}

	return firstErr
}

// Stop sends mailbox.Stop to every member's control lane, returning the
// first error encountered (if any).
func (p *Pool[M]) Stop() error {
	var firstErr error

	for _, m := range p.members {
		if err := m.mb.SendSystem(mailbox.Stop); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("actorutil: pool %q: stop %s: %w", p.id, m.id, err)
		}
	}

	return firstErr
}
