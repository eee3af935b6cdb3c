// Package scheduler is the concurrent task runtime of jetleaf-scheduling.
//
// # Overview
//
// A ScheduledTask binds a job body to a trigger and runs the loop: consult
// the trigger for the next fire instant, sleep until it, execute, record the
// outcome in the ExecutionContext, reschedule. Tasks are registered under a
// stable, human-readable name; scheduling the same name twice returns the
// existing task.
//
// # Concurrency
//
// Each task is a single cooperative execution chain: at most one invocation
// of its body is in flight, because the next fire is armed only after the
// previous execution finished. Across tasks, the Scheduler gates bodies to
// MaxConcurrency simultaneous executions; excess executions park in a FIFO
// overflow queue bounded by QueueCapacity, and overflow beyond that surfaces
// as ErrQueueFull to the task loop, which records it as a failed execution.
//
// # Failure policy
//
// Errors (and panics) from a job body are recorded in the task's
// ExecutionContext and logged; they never stop the loop. A task stops
// cleanly when its trigger returns a zero fire time, or when it is
// cancelled.
//
// # Cancellation
//
// Cancellation is cooperative. Cancel(false) drops the pending fire and
// waits for an in-flight execution; Cancel(true) additionally cancels the
// context handed to the job body and returns without waiting. Running bodies
// are never preempted.
package scheduler
