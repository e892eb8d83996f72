package mailbox

import (
	"fmt"

	"github.com/arcrun/actorcore/pid"
	"github.com/arcrun/actorcore/supervision"
)

// SystemMessage is the sealed tagged union of control-lane messages a cell
// can receive. The eight variant constructors below (Start, Stop, Restart,
// Watch, Unwatch, Terminated, ReceiveTimeout, Escalate) are the only
// implementations; the unexported marker method prevents external packages
// from adding new ones.
type SystemMessage interface {
	// Priority returns the canonical priority of this variant. The
	// Mailbox control lane does not reorder by it: system messages are
	// delivered in the order they were enqueued.
	Priority() int8

	systemMessageMarker()
}

// Canonical priorities, derived from the partial order named in the
// specification: Stop > Restart > Watch/Unwatch/Terminated > Escalate >
// ReceiveTimeout. Start is not ordered against the others there and is
// given Stop's value.
const (
	priorityStop           int8 = 7
	priorityStart          int8 = 7
	priorityRestart        int8 = 6
	priorityWatch          int8 = 5
	priorityEscalate       int8 = 4
	priorityReceiveTimeout int8 = 3
)

type startMessage struct{}

func (startMessage) Priority() int8    { return priorityStart }
func (startMessage) systemMessageMarker() {}

// Start is sent once to a newly built cell. When the cell was registered
// with a watcher, the Watch envelope enqueued at registration precedes it.
var Start SystemMessage = startMessage{}

type stopMessage struct{}

func (stopMessage) Priority() int8    { return priorityStop }
func (stopMessage) systemMessageMarker() {}

// Stop requests that the cell terminate after draining its children.
var Stop SystemMessage = stopMessage{}

type restartMessage struct{}

func (restartMessage) Priority() int8    { return priorityRestart }
func (restartMessage) systemMessageMarker() {}

// Restart requests that the cell rebuild its handler state and resume.
var Restart SystemMessage = restartMessage{}

// WatchMessage asks the receiving cell to add Watched to its watchers; the
// receiving cell sends Terminated(itself) to each watcher when it stops.
type WatchMessage struct {
	Watched pid.ActorId
}

func (WatchMessage) Priority() int8    { return priorityWatch }
func (WatchMessage) systemMessageMarker() {}

// Watch builds a WatchMessage for the given target.
func Watch(watched pid.ActorId) SystemMessage { return WatchMessage{Watched: watched} }

// UnwatchMessage asks the receiving cell to remove Watched from its
// watchers.
type UnwatchMessage struct {
	Watched pid.ActorId
}

func (UnwatchMessage) Priority() int8    { return priorityWatch }
func (UnwatchMessage) systemMessageMarker() {}

// Unwatch builds an UnwatchMessage for the given target.
func Unwatch(watched pid.ActorId) SystemMessage { return UnwatchMessage{Watched: watched} }

// TerminatedMessage notifies a watcher that the named actor has stopped.
type TerminatedMessage struct {
	Actor pid.ActorId
}

func (TerminatedMessage) Priority() int8    { return priorityWatch }
func (TerminatedMessage) systemMessageMarker() {}

// Terminated builds a TerminatedMessage for the given actor.
func Terminated(actor pid.ActorId) SystemMessage { return TerminatedMessage{Actor: actor} }

type receiveTimeoutMessage struct{}

func (receiveTimeoutMessage) Priority() int8    { return priorityReceiveTimeout }
func (receiveTimeoutMessage) systemMessageMarker() {}

// ReceiveTimeout signals that no user message arrived within the cell's
// configured idle window.
var ReceiveTimeout SystemMessage = receiveTimeoutMessage{}

// EscalateMessage carries a failure that a child's supervisor chose not to
// handle locally, bound for the parent guardian's mailbox.
type EscalateMessage struct {
	Info supervision.FailureInfo
}

func (EscalateMessage) Priority() int8    { return priorityEscalate }
func (EscalateMessage) systemMessageMarker() {}

// Escalate builds an EscalateMessage wrapping the given failure.
func Escalate(info supervision.FailureInfo) SystemMessage { return EscalateMessage{Info: info} }

// systemMessageName renders the message's variant name for logging.
func systemMessageName(m SystemMessage) string {
	switch v := m.(type) {
	case startMessage:
		return "start"
	case stopMessage:
		return "stop"
	case restartMessage:
		return "restart"
	case WatchMessage:
		return fmt.Sprintf("watch(%s)", v.Watched)
	case UnwatchMessage:
		return fmt.Sprintf("unwatch(%s)", v.Watched)
	case TerminatedMessage:
		return fmt.Sprintf("terminated(%s)", v.Actor)
	case receiveTimeoutMessage:
		return "receive_timeout"
	case EscalateMessage:
		return fmt.Sprintf("escalate(%s)", v.Info.Actor)
	default:
		return "unknown"
	}
}
