package mailbox

// DefaultPriority is the priority assigned to an envelope when the caller
// does not specify one.
const DefaultPriority int8 = 4

// PriorityEnvelope is the unit the scheduler and a cell exchange on the
// regular (user) lane: a message plus the priority it was enqueued with.
// Control-lane traffic bypasses this type entirely — see SystemMessage and
// Mailbox.SendSystem — since it never competes with user messages for
// ordering, only for which lane drains first.
type PriorityEnvelope[M any] struct {
	message  M
	priority int8
}

// NewEnvelope creates an envelope with the given priority.
func NewEnvelope[M any](message M, priority int8) PriorityEnvelope[M] {
	return PriorityEnvelope[M]{message: message, priority: priority}
}

// WithDefaultPriority creates an envelope using DefaultPriority.
func WithDefaultPriority[M any](message M) PriorityEnvelope[M] {
	return NewEnvelope(message, DefaultPriority)
}

// Message returns the enclosed message.
func (e PriorityEnvelope[M]) Message() M { return e.message }

// Priority returns the stored priority.
func (e PriorityEnvelope[M]) Priority() int8 { return e.priority }

// IntoParts decomposes the envelope into its message and priority.
func (e PriorityEnvelope[M]) IntoParts() (M, int8) { return e.message, e.priority }

// Map rewrites the underlying message while preserving the priority. This is
// what lets a typed layer built on top of this core adapt envelopes without
// reaching into scheduler internals.
func Map[M, N any](e PriorityEnvelope[M], f func(M) N) PriorityEnvelope[N] {
	return PriorityEnvelope[N]{message: f(e.message), priority: e.priority}
}

// MapPriority rewrites the priority using the supplied function, leaving the
// message untouched.
func (e PriorityEnvelope[M]) MapPriority(f func(int8) int8) PriorityEnvelope[M] {
	e.priority = f(e.priority)
	return e
}
