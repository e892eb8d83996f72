package scheduler

import "github.com/arcrun/actorcore/supervision"

// RootEscalationSink is where a FailureInfo lands once it has escalated all
// the way to the root guardian with nowhere further to go, per spec.md §7:
// "Root escalations fire the telemetry sink, then the root handler, then
// the root listener, in that order. No further propagation is possible."
// Every field is optional; a nil hook is simply skipped.
type RootEscalationSink struct {
	// Telemetry observes every root escalation for metrics/tracing.
	Telemetry func(info supervision.FailureInfo)
	// Handler performs the application's chosen terminal action (e.g.
	// log-and-continue, or trigger a broader shutdown).
	Handler func(info supervision.FailureInfo)
	// Listener is notified last, e.g. for test assertions or secondary
	// observers that must not affect the Handler's decision.
	Listener func(info supervision.FailureInfo)
}

func (s RootEscalationSink) fire(info supervision.FailureInfo, onTelemetryInvoked func()) {
	if s.Telemetry != nil {
		s.Telemetry(info)
	}

	if onTelemetryInvoked != nil {
		onTelemetryInvoked()
	}

	if s.Handler != nil {
		s.Handler(info)
	}

	if s.Listener != nil {
		s.Listener(info)
	}
}
