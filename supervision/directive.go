package supervision

import (
	"sync"
	"time"

	"github.com/arcrun/actorcore/pid"
)

// Directive is the action a supervisor chooses in response to a child
// actor's failure.
type Directive int

const (
	// Resume leaves the actor running; no action is taken and the failed
	// message is simply dropped.
	Resume Directive = iota
	// Stop enqueues a Stop system envelope to the child's control lane.
	Stop
	// Restart enqueues a Restart system envelope and invokes the
	// strategy's AfterRestart hook for backoff/counter bookkeeping.
	Restart
	// Escalate hands the failure to the parent guardian, advancing the
	// FailureInfo's stage. At the root, there is no parent, and the
	// failure reaches the root escalation sink instead.
	Escalate
)

// String renders the directive for logging.
func (d Directive) String() string {
	switch d {
	case Resume:
		return "resume"
	case Stop:
		return "stop"
	case Restart:
		return "restart"
	case Escalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// Strategy maps a child's failure to a Directive. BeforeStart and
// AfterRestart are lifecycle hooks a strategy can use to maintain
// per-actor bookkeeping (e.g. restart counters for backoff).
type Strategy interface {
	// Decide inspects a failure and returns the directive to apply.
	Decide(actor pid.ActorId, failure ActorFailure) Directive

	// BeforeStart is invoked once, when a child is first registered.
	BeforeStart(actor pid.ActorId)

	// AfterRestart is invoked after a Restart directive has been
	// enqueued to the child's control lane.
	AfterRestart(actor pid.ActorId)
}

// StaticStrategy always returns the same directive, regardless of the
// failure. It is useful for tests and for the simplest supervision
// policies (e.g. "always resume" or "always stop").
type StaticStrategy struct {
	Directive Directive
}

// Decide implements Strategy.
func (s StaticStrategy) Decide(pid.ActorId, ActorFailure) Directive { return s.Directive }

// BeforeStart implements Strategy.
func (StaticStrategy) BeforeStart(pid.ActorId) {}

// AfterRestart implements Strategy.
func (StaticStrategy) AfterRestart(pid.ActorId) {}

// DecideFunc adapts a plain function to the Strategy interface for the
// common case where only Decide needs custom logic.
type DecideFunc func(actor pid.ActorId, failure ActorFailure) Directive

// OneForOneStrategy applies a caller-supplied decision function to each
// failing child independently (as opposed to an all-for-one strategy that
// would restart every sibling). The guardian tree's defaults are
// StaticStrategy values, not this type.
type OneForOneStrategy struct {
	decide DecideFunc
}

// NewOneForOneStrategy builds a strategy that consults decide for every
// failure, with no restart bookkeeping.
func NewOneForOneStrategy(decide DecideFunc) *OneForOneStrategy {
	return &OneForOneStrategy{decide: decide}
}

// Decide implements Strategy.
func (s *OneForOneStrategy) Decide(actor pid.ActorId, failure ActorFailure) Directive {
	return s.decide(actor, failure)
}

// BeforeStart implements Strategy.
func (*OneForOneStrategy) BeforeStart(pid.ActorId) {}

// AfterRestart implements Strategy.
func (*OneForOneStrategy) AfterRestart(pid.ActorId) {}

// RestartBackoffStrategy restarts failing children up to MaxRestarts times
// within Window, after which it escalates instead. This mirrors the
// restart-with-backoff counters common to supervisor strategies: AfterRestart
// records a timestamped attempt, and Decide prunes attempts that have aged
// out of the window before counting.
type RestartBackoffStrategy struct {
	// MaxRestarts is the number of restarts tolerated within Window
	// before the strategy escalates instead.
	MaxRestarts int
	// Window bounds how far back restart attempts are counted.
	Window time.Duration
	// Fallback is consulted for non-restart decisions; if nil, Restart is
	// assumed for any failure that isn't over the limit.
	Fallback DecideFunc

	mu       sync.Mutex
	attempts map[pid.ActorId][]time.Time
	now      func() time.Time
}

// NewRestartBackoffStrategy builds a RestartBackoffStrategy with the given
// limits.
func NewRestartBackoffStrategy(maxRestarts int, window time.Duration) *RestartBackoffStrategy {
	return &RestartBackoffStrategy{
		MaxRestarts: maxRestarts,
		Window:      window,
		attempts:    make(map[pid.ActorId][]time.Time),
		now:         time.Now,
	}
}

// Decide implements Strategy.
func (s *RestartBackoffStrategy) Decide(actor pid.ActorId, failure ActorFailure) Directive {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.Window)
	attempts := s.attempts[actor]
	pruned := attempts[:0]
	for _, t := range attempts {
		if t.After(cutoff) {
			pruned = append(pruned, t)
		}
	}
	s.attempts[actor] = pruned

	if len(pruned) >= s.MaxRestarts {
		return Escalate
	}

	if s.Fallback != nil {
		if d := s.Fallback(actor, failure); d != Restart {
			return d
		}
	}

	return Restart
}

// BeforeStart implements Strategy.
func (s *RestartBackoffStrategy) BeforeStart(actor pid.ActorId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, actor)
}

// AfterRestart implements Strategy.
func (s *RestartBackoffStrategy) AfterRestart(actor pid.ActorId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[actor] = append(s.attempts[actor], s.now())
}

// RestartCount returns the number of restart attempts currently counted
// within the window for the given actor. Exposed for tests and metrics.
func (s *RestartBackoffStrategy) RestartCount(actor pid.ActorId) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts[actor])
}
