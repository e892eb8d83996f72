// Package supervision defines the failure and directive vocabulary shared by
// the guardian and the scheduler: what a failure looked like, how far it has
// escalated, and what a supervisor decided to do about it.
package supervision

import (
	"fmt"

	"github.com/arcrun/actorcore/pid"
)

// ActorFailure wraps an error produced by an actor's handler (or synthesized
// from a recovered panic) so that supervisors can inspect it uniformly.
// Payload exposes the original value for callers that need to downcast to a
// concrete error or panic value, mirroring the as_any escape hatch used by
// the typed layer built on top of this core.
type ActorFailure struct {
	err     error
	payload any
}

// NewActorFailure wraps a handler-returned error as an ActorFailure.
func NewActorFailure(err error) ActorFailure {
	return ActorFailure{err: err, payload: err}
}

// FromPanicPayload synthesizes an ActorFailure from a recovered panic value.
// This is how the cell's panic-recovery path (on platforms where unwinding
// is available) feeds the same failure pipeline as a returned error.
func FromPanicPayload(payload any) ActorFailure {
	err, ok := payload.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", payload)
	}

	return ActorFailure{err: err, payload: payload}
}

// Error implements the error interface, returning the failure's description.
func (f ActorFailure) Error() string {
	if f.err == nil {
		return "<nil actor failure>"
	}

	return f.err.Error()
}

// Unwrap exposes the wrapped error for errors.Is/errors.As.
func (f ActorFailure) Unwrap() error {
	return f.err
}

// Payload returns the original error or panic value for downcasting.
func (f ActorFailure) Payload() any {
	return f.payload
}

// EscalationStage counts how many supervisors have already looked at a
// failure and chosen to escalate it further up the guardian tree. Stage 0 is
// the supervisor directly above the failing actor.
type EscalationStage int

// FailureInfo carries a failure up the guardian tree. escalate_to_parent
// produces a new FailureInfo addressed at the parent's path with an advanced
// stage; it is terminal (returns false) once the path has no parent, i.e. the
// failure has reached the root guardian.
type FailureInfo struct {
	Actor    pid.ActorId
	Path     pid.ActorPath
	Failure  ActorFailure
	Metadata map[string]string
	Stage    EscalationStage
}

// NewFailureInfo builds the initial FailureInfo for a failure observed by the
// direct parent of the failing actor.
func NewFailureInfo(actor pid.ActorId, path pid.ActorPath, failure ActorFailure) FailureInfo {
	return FailureInfo{Actor: actor, Path: path, Failure: failure}
}

// EscalateToParent returns a new FailureInfo addressed to the parent's path
// with the stage advanced by one. The second return value is false when the
// failure has no parent to escalate to, i.e. it has already reached the root
// guardian and must be handed to the root escalation sink instead.
func (f FailureInfo) EscalateToParent() (FailureInfo, bool) {
	parent, ok := f.Path.Parent()
	if !ok {
		return FailureInfo{}, false
	}

	return FailureInfo{
		Actor:    f.Actor,
		Path:     parent,
		Failure:  f.Failure,
		Metadata: f.Metadata,
		Stage:    f.Stage + 1,
	}, true
}

// AtRoot reports whether this FailureInfo's path has no parent, meaning it
// has nowhere further to escalate and must be handled by the root sink.
func (f FailureInfo) AtRoot() bool {
	_, ok := f.Path.Parent()
	return !ok
}
