package scheduler

import "time"

// InvokeResult is what a dispatch step reports back to the coordinator,
// describing what should happen to the cell's index next.
type InvokeResult interface {
	invokeResultMarker()
}

// Completed reports that the batch finished normally. ReadyHint tells the
// coordinator whether the mailbox still has pending work: true re-registers
// the index immediately, false unregisters it until the next enqueue wakes
// it back up.
type Completed struct {
	ReadyHint bool
}

func (Completed) invokeResultMarker() {}

// Yielded reports that the cell voluntarily gave up its batch slot before
// draining everything available, for fairness. The index is always
// re-registered so the cell gets another turn.
type Yielded struct{}

func (Yielded) invokeResultMarker() {}

// Suspended reports that the cell is waiting on something external (e.g. an
// ask response, a timer) and should not be considered ready until that
// external event calls RegisterReady again.
type Suspended struct {
	Reason string
}

func (Suspended) invokeResultMarker() {}

// Stopped reports that the cell finished processing Stop and is ready to be
// recycled from the scheduler's slab.
type Stopped struct{}

func (Stopped) invokeResultMarker() {}

// Failed reports that the dispatch step itself (not the handler — handler
// failures go through the guardian) could not make progress. RetryAfter, if
// set, is a hint that an external timer should re-register the index after
// the given delay; if unset, the index is simply unregistered.
type Failed struct {
	Err        error
	RetryAfter *time.Duration
}

func (Failed) invokeResultMarker() {}
