// Package guardian implements the per-parent child registry: it applies
// naming policy on registration, routes failure directives to a child's
// control lane, and emits Watch/Unwatch traffic as children come and go.
package guardian

import (
	"fmt"
	"sync"

	"github.com/arcrun/actorcore/mailbox"
	"github.com/arcrun/actorcore/pid"
	"github.com/arcrun/actorcore/supervision"
)

// ChildRecord is what a Guardian keeps for each registered child: enough to
// route system traffic to it and to report its failures with a fully
// addressed path.
type ChildRecord struct {
	// Control is the child's control-lane handle; the guardian never
	// holds anything else about the child, matching the "parent owns a
	// send-side handle, not a pointer" ownership rule.
	Control mailbox.ControlSender
	// Path is this child's fully qualified path, used when a failure
	// needs to be reported with FailureInfo.
	Path pid.ActorPath
	// Name is the registered name, or "" if the child was registered
	// with AutoNaming.
	Name string
	// Watcher is the actor that asked to be notified via Terminated when
	// this child stops, if any.
	Watcher *pid.ActorId
}

// Guardian is the per-parent child registry and failure-directive
// dispatcher described by the supervision tree: one instance per actor that
// has spawned children (including the root).
type Guardian struct {
	mu sync.Mutex

	selfPath pid.ActorPath
	strategy supervision.Strategy

	nextID   pid.ActorId
	children map[pid.ActorId]*ChildRecord
	names    map[string]pid.ActorId

	stopped bool
}

// New creates a Guardian for the actor at selfPath, applying strategy to
// every child's failures.
func New(selfPath pid.ActorPath, strategy supervision.Strategy) *Guardian {
	return &Guardian{
		selfPath: selfPath,
		strategy: strategy,
		children: make(map[pid.ActorId]*ChildRecord),
		names:    make(map[string]pid.ActorId),
	}
}

// RegisterChild allocates an ActorId for a new child, applies the naming
// policy, and records the child's control handle. If watcher is non-nil, a
// Watch envelope is enqueued onto the child's control lane as its first
// control message.
func (g *Guardian) RegisterChild(
	naming supervision.ChildNaming, control mailbox.ControlSender, watcher *pid.ActorId,
) (pid.ActorId, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stopped {
		return 0, SpawnError{Kind: GuardianStopped}
	}

	name, err := g.resolveNameLocked(naming)
	if err != nil {
		return 0, err
	}

	id := g.nextID
	g.nextID++
	g.strategy.BeforeStart(id)

	record := &ChildRecord{
		Control: control,
		Path:    g.selfPath.PushChild(id),
		Name:    name,
		Watcher: watcher,
	}
	g.children[id] = record
	if name != "" {
		g.names[name] = id
	}

	if watcher != nil {
		if sendErr := control.SendSystem(mailbox.Watch(*watcher)); sendErr != nil {
			log.Warnf("guardian: failed to enqueue watch for child %s: %v", id, sendErr)
		}
	}

	log.Debugf("guardian: registered child %s (name=%q)", id, name)

	return id, nil
}

func (g *Guardian) resolveNameLocked(naming supervision.ChildNaming) (string, error) {
	switch n := naming.(type) {
	case supervision.PrefixNaming:
		for i := 0; ; i++ {
			candidate := fmt.Sprintf("%s-%d", n.Prefix, i)
			if _, exists := g.names[candidate]; !exists {
				return candidate, nil
			}
		}

	case supervision.ExplicitNaming:
		if _, exists := g.names[n.Name]; exists {
			return "", SpawnError{Kind: NameExists, Name: n.Name}
		}
		return n.Name, nil

	default:
		// AutoNaming and any other sealed variant: no name recorded.
		return "", nil
	}
}

// NotifyFailure applies the guardian's strategy to a child's failure. For
// Resume/Stop/Restart it acts locally (enqueuing the appropriate system
// envelope) and returns (zero, false). For Escalate it returns the
// FailureInfo addressed at this guardian's own parent, and true; the caller
// (the scheduler) is responsible for forwarding that to the parent
// guardian's NotifyFailure, or — if this guardian has no parent — to the
// root escalation sink.
func (g *Guardian) NotifyFailure(childID pid.ActorId, failure supervision.ActorFailure) (supervision.FailureInfo, bool) {
	g.mu.Lock()
	record, ok := g.children[childID]
	g.mu.Unlock()

	if !ok {
		log.Warnf("guardian: failure reported for unknown child %s", childID)
		return supervision.FailureInfo{}, false
	}

	info := supervision.NewFailureInfo(childID, record.Path, failure)
	directive := g.strategy.Decide(childID, failure)

	log.Debugf("guardian: child %s failed (%v), directive=%s", childID, failure, directive)

	switch directive {
	case supervision.Resume:
		return supervision.FailureInfo{}, false

	case supervision.Stop:
		if err := record.Control.SendSystem(mailbox.Stop); err != nil {
			log.Warnf("guardian: failed to enqueue stop for child %s: %v", childID, err)
		}
		return supervision.FailureInfo{}, false

	case supervision.Restart:
		if err := record.Control.SendSystem(mailbox.Restart); err != nil {
			log.Warnf("guardian: failed to enqueue restart for child %s: %v", childID, err)
		}
		g.strategy.AfterRestart(childID)
		return supervision.FailureInfo{}, false

	case supervision.Escalate:
		escalated, hasParent := info.EscalateToParent()
		return escalated, hasParent

	default:
		return supervision.FailureInfo{}, false
	}
}

// RemoveChild drops the bookkeeping for a child. If the child had a watcher
// registered, an Unwatch envelope addressed to that watcher is enqueued onto
// the child's own control lane first, so a child that outlives this removal
// (e.g. a soft detach rather than a stop) does not keep notifying a watcher
// the parent no longer tracks. The name entry, if any, is released.
func (g *Guardian) RemoveChild(id pid.ActorId) {
	g.mu.Lock()
	defer g.mu.Unlock()

	record, ok := g.children[id]
	if !ok {
		return
	}

	if record.Watcher != nil {
		if err := record.Control.SendSystem(mailbox.Unwatch(*record.Watcher)); err != nil {
			log.Warnf("guardian: failed to enqueue unwatch for child %s: %v", id, err)
		}
	}

	delete(g.children, id)
	if record.Name != "" {
		delete(g.names, record.Name)
	}
}

// Stop marks the guardian as stopped, rejecting further registrations, and
// returns every currently registered child's control handle so the caller
// can propagate Stop to each of them.
func (g *Guardian) Stop() []mailbox.ControlSender {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopped = true

	out := make([]mailbox.ControlSender, 0, len(g.children))
	for _, record := range g.children {
		out = append(out, record.Control)
	}

	return out
}

// ChildPath returns the path recorded for a child, if it is still
// registered.
func (g *Guardian) ChildPath(id pid.ActorId) (pid.ActorPath, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	record, ok := g.children[id]
	if !ok {
		return pid.ActorPath{}, false
	}
	return record.Path, true
}

// ChildCount returns the number of currently registered children.
func (g *Guardian) ChildCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.children)
}

// Lookup resolves a registered name back to its ActorId.
func (g *Guardian) Lookup(name string) (pid.ActorId, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, ok := g.names[name]
	return id, ok
}
