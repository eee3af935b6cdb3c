package scheduler

import "errors"

var (
	// ErrShutdown is returned by Schedule calls after Shutdown, and surfaced
	// to task loops whose queued execution was abandoned by Shutdown.
	ErrShutdown = errors.New("scheduler is shut down")

	// ErrQueueFull is the admission-control backpressure signal: the
	// concurrency gate is saturated and the overflow queue is at capacity.
	ErrQueueFull = errors.New("scheduler overflow queue is full")

	// ErrTaskCancelled is returned by Start on an already-cancelled task.
	ErrTaskCancelled = errors.New("task is cancelled")
)
