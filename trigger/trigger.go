// Package trigger defines the scheduling policies that decide when a task
// fires next: cron, fixed-rate, fixed-delay, and simple periodic.
package trigger

import (
	"time"
)

// Context exposes the slice of a task's execution history that triggers
// consult. The zero time means "never happened".
//
// Each variant deliberately anchors on a different timestamp:
// fixed-rate on the last scheduled time (start-to-start cadence), fixed-delay
// on the last completion (end-to-start spacing), periodic and cron on the
// last actual start.
type Context interface {
	// LastScheduled is the instant the previous execution was due.
	LastScheduled() time.Time

	// LastActualStart is the instant the previous execution actually began.
	LastActualStart() time.Time

	// LastCompletion is the instant the previous execution finished,
	// successfully or not.
	LastCompletion() time.Time
}

// Trigger produces the next instant at which a task should fire.
type Trigger interface {
	// NextFireTime returns the next fire instant given the task's history.
	// A zero time means the trigger declares no further executions; the
	// owning task then stops cleanly.
	NextFireTime(ctx Context) (time.Time, error)

	// Location is the time zone all of this trigger's computations use.
	Location() *time.Location
}
