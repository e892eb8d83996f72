package actorcore

import (
	"errors"
	"fmt"

	"github.com/arcrun/actorcore/guardian"
	"github.com/arcrun/actorcore/mailbox"
)

// SpawnErrorKind classifies why Spawn/SpawnPrefix/SpawnNamed rejected a
// spawn request, matching spec.md §7's SpawnError taxonomy exactly:
// Queue(MailboxError) and NameExists(String).
type SpawnErrorKind int

const (
	// Queue means the parent's guardian could not accept the registration
	// (the guardian has already processed Stop); wrapped as a Closed
	// MailboxError since a stopped guardian rejects new children the same
	// way a closed mailbox rejects new messages.
	Queue SpawnErrorKind = iota
	// NameExists means an ExplicitNaming request collided with an
	// already-registered sibling name.
	NameExists
)

// SpawnError is the external, typed-layer spawn failure surfaced by
// Spawn/SpawnPrefix/SpawnNamed.
type SpawnError struct {
	Kind SpawnErrorKind
	Err  error
	Name string
}

// Error implements the error interface.
func (e SpawnError) Error() string {
	switch e.Kind {
	case NameExists:
		return fmt.Sprintf("actorcore: spawn rejected: name %q already exists", e.Name)
	case Queue:
		return fmt.Sprintf("actorcore: spawn rejected: %v", e.Err)
	default:
		return "actorcore: spawn rejected"
	}
}

// Unwrap exposes the wrapped MailboxError, if any, for errors.As.
func (e SpawnError) Unwrap() error { return e.Err }

// wrapSpawnError translates a guardian.SpawnError (the internal registry's
// view, which additionally distinguishes "guardian already stopped") into
// the external SpawnError taxonomy named by spec.md §7.
func wrapSpawnError[M any](err error) SpawnError {
	var gerr guardian.SpawnError
	if errors.As(err, &gerr) {
		switch gerr.Kind {
		case guardian.NameExists:
			return SpawnError{Kind: NameExists, Name: gerr.Name}
		case guardian.GuardianStopped:
			return SpawnError{Kind: Queue, Err: mailbox.MailboxError[M]{Kind: mailbox.Closed}}
		}
	}

	return SpawnError{Kind: Queue, Err: err}
}
