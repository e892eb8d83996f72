package registry

import (
	"fmt"
	"sync"

	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/pid"
)

// ActorRef is the narrow, type-erased send capability a ProcessRegistry
// holds for a local process: enough to route an arbitrary message by Pid
// without the registry itself being generic over every actor's message
// type.
type ActorRef interface {
	// Pid returns the address this ref was registered under.
	Pid() pid.Pid

	// Tell attempts to enqueue msg onto the target's regular lane at the
	// given priority. It fails if msg's dynamic type doesn't match the
	// target's mailbox element type, or if the mailbox itself rejects
	// the enqueue.
	Tell(msg any, priority int8) error

	// Control returns the target's control-lane handle, used for
	// resolve_or_dead_letter paths that need to deliver a SystemMessage
	// rather than a user message.
	Control() mailbox.ControlSender
}

type localRef[M any] struct {
	target pid.Pid
	mb     *mailbox.Mailbox[M]
}

// NewLocalRef adapts a concrete *mailbox.Mailbox[M] into the registry's
// type-erased ActorRef, the Go-idiomatic resolution of needing one
// non-generic process table over actors of differing message types.
func NewLocalRef[M any](target pid.Pid, mb *mailbox.Mailbox[M]) ActorRef {
	return &localRef[M]{target: target, mb: mb}
}

func (r *localRef[M]) Pid() pid.Pid { return r.target }

func (r *localRef[M]) Tell(msg any, priority int8) error {
	typed, ok := msg.(M)
	if !ok {
		return fmt.Errorf("registry: message type %T does not match target's %T", msg, typed)
	}

	return r.mb.TrySend(mailbox.NewEnvelope(typed, priority))
}

func (r *localRef[M]) Control() mailbox.ControlSender { return r.mb }

// Resolution classifies how a Pid resolved against a ProcessRegistry,
// matching spec.md §4.7's three outcomes exactly.
type Resolution int

const (
	// Local means the Pid is registered in this registry.
	Local Resolution = iota
	// Remote means the Pid names a different system; remote delivery
	// itself is out of scope (spec.md §1's Non-goals) but the
	// classification is still surfaced so a future remoting layer can
	// hook in here without a breaking change.
	Remote
	// Unresolved means the Pid's system matches this registry but no
	// actor is currently registered at its path (including a path whose
	// actor has been unregistered).
	Unresolved
)

type registryEntry struct {
	ref        ActorRef
	terminated bool
}

// ProcessRegistry maps Pid to ActorRef for one actor system instance,
// distinguishing local, remote, and unknown addresses per spec.md §4.7.
// Reads dominate writes (writes only happen on spawn/terminate), so it is
// guarded by a sync.RWMutex rather than the mailbox package's Cond-based
// mutex, matching the read-heavy access pattern spec.md §5 calls out.
type ProcessRegistry struct {
	system string

	mu      sync.RWMutex
	entries map[string]*registryEntry

	hub *DeadLetterHub
}

// NewProcessRegistry constructs a registry for the named system, routing
// unresolvable deliveries to hub.
func NewProcessRegistry(system string, hub *DeadLetterHub) *ProcessRegistry {
	return &ProcessRegistry{
		system:  system,
		entries: make(map[string]*registryEntry),
		hub:     hub,
	}
}

func (r *ProcessRegistry) key(p pid.Pid) string { return p.Path.String() }

// Register records ref under its own Pid.
func (r *ProcessRegistry) Register(ref ActorRef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.key(ref.Pid())] = &registryEntry{ref: ref}
}

// Unregister marks p as terminated rather than deleting its entry outright,
// so a subsequent ResolveOrDeadLetter reports the more specific Terminated
// reason instead of UnregisteredPid.
func (r *ProcessRegistry) Unregister(p pid.Pid) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[r.key(p)]; ok {
		entry.ref = nil
		entry.terminated = true

		return
	}

	r.entries[r.key(p)] = &registryEntry{terminated: true}
}

// Resolve classifies p and returns its ActorRef when Local.
func (r *ProcessRegistry) Resolve(p pid.Pid) (ActorRef, Resolution) {
	if p.System != r.system {
		return nil, Remote
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[r.key(p)]
	if !ok || entry.ref == nil {
		return nil, Unresolved
	}

	return entry.ref, Local
}

// ResolveOrDeadLetter implements spec.md §4.7's resolve_or_dead_letter:
// deliver msg to p's mailbox if resolvable, or publish a DeadLetter with
// the most specific applicable Reason and return an error describing the
// failure.
func (r *ProcessRegistry) ResolveOrDeadLetter(p pid.Pid, msg any, priority int8) error {
	ref, resolution := r.Resolve(p)

	switch resolution {
	case Local:
		if err := ref.Tell(msg, priority); err != nil {
			if r.hub != nil {
				r.hub.Route(p, msg, DeliveryRejected)
			}

			return err
		}

		return nil

	case Remote:
		if r.hub != nil {
			r.hub.Route(p, msg, NetworkUnreachable)
		}

		return fmt.Errorf("registry: %s is not local to system %q", p, r.system)

	default:
		reason := UnregisteredPid

		r.mu.RLock()
		entry, tombstoned := r.entries[r.key(p)]
		r.mu.RUnlock()

		if tombstoned && entry.terminated {
			reason = Terminated
		}

		if r.hub != nil {
			r.hub.Route(p, msg, reason)
		}

		return fmt.Errorf("registry: %s could not be resolved (%s)", p, reason)
	}
}
