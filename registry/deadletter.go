// Package registry implements §4.7's ProcessRegistry (Pid resolution) and
// dead-letter hub: the unreachable-message sink every failed delivery in
// this runtime ultimately routes through.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/arcrun/actorcore/pid"
)

// Reason enumerates why a message could not be delivered, matching
// spec.md §4.7's exact set.
type Reason int

const (
	// UnregisteredPid means the target Pid was never registered in this
	// registry.
	UnregisteredPid Reason = iota
	// Terminated means the target actor existed but has since stopped.
	Terminated
	// DeliveryRejected means the target's mailbox rejected the message
	// (e.g. QueueFull, Closed).
	DeliveryRejected
	// NetworkUnreachable means the target resolved to a Remote process
	// that could not be reached. Remote delivery itself is out of scope
	// per spec.md §1's Non-goals, but the reason code is carried so a
	// future remoting layer can plug into this hub without a breaking
	// change.
	NetworkUnreachable
)

// String renders the reason for logging.
func (r Reason) String() string {
	switch r {
	case UnregisteredPid:
		return "unregistered_pid"
	case Terminated:
		return "terminated"
	case DeliveryRejected:
		return "delivery_rejected"
	case NetworkUnreachable:
		return "network_unreachable"
	default:
		return "unknown"
	}
}

// DeadLetter is one undeliverable message, published to the hub with a
// correlation ID (for log grouping) so an operator can trace a single
// failed delivery across any registered listener's own logging.
type DeadLetter struct {
	EventID uuid.UUID
	Pid     pid.Pid
	Message any
	Reason  Reason
}

// Listener observes every DeadLetter published to the hub.
type Listener func(DeadLetter)

// DeadLetterHub fans a DeadLetter out to every registered listener,
// synchronously, in registration order, per spec.md §4.7 and the
// supplemented subscription API named in SPEC_FULL.md (adopted verbatim
// from original_source's synchronous fan-out hub).
type DeadLetterHub struct {
	mu        sync.Mutex
	listeners []Listener
}

// NewDeadLetterHub constructs an empty hub.
func NewDeadLetterHub() *DeadLetterHub {
	return &DeadLetterHub{}
}

// Subscribe registers a listener, returning an unsubscribe function.
func (h *DeadLetterHub) Subscribe(listener Listener) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := len(h.listeners)
	h.listeners = append(h.listeners, listener)

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if idx < len(h.listeners) {
			h.listeners[idx] = nil
		}
	}
}

// Publish fans letter out to every still-subscribed listener, synchronously
// and in registration order.
func (h *DeadLetterHub) Publish(letter DeadLetter) {
	h.mu.Lock()
	listeners := make([]Listener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	for _, listener := range listeners {
		if listener == nil {
			continue
		}

		listener(letter)
	}
}

// Route is a convenience constructor that builds and publishes a DeadLetter
// for msg addressed at target, with a freshly generated event ID for log
// correlation.
func (h *DeadLetterHub) Route(target pid.Pid, msg any, reason Reason) {
	letter := DeadLetter{
		EventID: uuid.New(),
		Pid:     target,
		Message: msg,
		Reason:  reason,
	}

	log.Debugf("deadletter: %s (%s) reason=%s", target, letter.EventID, reason)

	h.Publish(letter)
}
