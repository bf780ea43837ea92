package sim

import "fmt"

// PastEventError is returned by Scheduler.Schedule when an event's
// timestamp precedes the scheduler's current time. Scheduling into the
// past is a programmer bug, not a recoverable runtime condition — callers
// are expected to treat it as fatal.
type PastEventError struct {
	Timestamp   int64
	CurrentTime int64
}

func (e *PastEventError) Error() string {
	return fmt.Sprintf("sim: cannot schedule event at t=%d: current time is already t=%d", e.Timestamp, e.CurrentTime)
}

// UnknownKindError is returned by factory functions (topology/workload
// builders) when given an unrecognized kind string. It is always returned
// before any simulation work begins.
type UnknownKindError struct {
	Component string // "topology" or "workload"
	Kind      string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("sim: unknown %s kind %q", e.Component, e.Kind)
}
