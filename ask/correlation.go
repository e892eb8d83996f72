package ask

import (
	"sync"

	"github.com/google/uuid"
)

// CorrelationStore is the "external store keyed by a small integer stamped
// into the envelope" spec.md §9's design notes describe for carrying
// sender/responder metadata without widening PriorityEnvelope. This
// implementation keys by uuid.UUID (grounded on the teacher's go.mod,
// which already depends on google/uuid for request/correlation IDs) rather
// than a raw integer, trading a few bytes for collision-freedom across
// concurrent askers without a shared counter.
type CorrelationStore struct {
	mu      sync.Mutex
	pending map[uuid.UUID]func(any)
}

// NewCorrelationStore constructs an empty store.
func NewCorrelationStore() *CorrelationStore {
	return &CorrelationStore{pending: make(map[uuid.UUID]func(any))}
}

// Register reserves a fresh correlation ID and records the completion
// callback a later Complete/Drop call will invoke exactly once.
func (s *CorrelationStore) Register(complete func(any)) uuid.UUID {
	id := uuid.New()

	s.mu.Lock()
	s.pending[id] = complete
	s.mu.Unlock()

	return id
}

// Complete resolves a pending correlation with value, invoking its stored
// callback. It returns false (a MissingResponder condition) if id is not
// registered, either because it was already completed/dropped or because
// it never existed.
func (s *CorrelationStore) Complete(id uuid.UUID, value any) bool {
	s.mu.Lock()
	complete, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}

	complete(value)

	return true
}

// Drop removes a pending correlation without completing it successfully,
// invoking its callback with a ResponderDropped-flavored value. Callers
// (typically an actor cell's Stop handling, or the scheduler's dead-letter
// path) use this when the responder is known to be gone.
func (s *CorrelationStore) Drop(id uuid.UUID, reason error) {
	s.mu.Lock()
	complete, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if ok {
		complete(reason)
	}
}

// Len reports the number of in-flight correlations, for tests and
// diagnostics.
func (s *CorrelationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending)
}
