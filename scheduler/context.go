package scheduler

import (
	"sync"
	"time"
)

// ExecutionContext is the per-task history record that triggers consult:
// when the previous run was due, when it actually started, when it finished,
// whether it failed, and how many times the task body has been entered.
//
// It is mutated only by the owning task's loop; reads from other goroutines
// (observers, snapshots) go through the same mutex and are best-effort with
// respect to an in-flight execution.
type ExecutionContext struct {
	mu sync.Mutex

	lastScheduled   time.Time
	lastActualStart time.Time
	lastCompletion  time.Time
	lastErr         error
	count           uint64
}

// NewExecutionContext returns an empty history.
func NewExecutionContext() *ExecutionContext { return &ExecutionContext{} }

// RecordScheduled notes the instant an execution was due.
func (c *ExecutionContext) RecordScheduled(t time.Time) {
	c.mu.Lock()
	c.lastScheduled = t
	c.mu.Unlock()
}

// RecordActualStart notes the instant the task body was entered and bumps
// the execution counter.
func (c *ExecutionContext) RecordActualStart(t time.Time) {
	c.mu.Lock()
	c.lastActualStart = t
	c.count++
	c.mu.Unlock()
}

// RecordCompletion notes a successful finish and clears the last error.
func (c *ExecutionContext) RecordCompletion(t time.Time) {
	c.mu.Lock()
	c.lastCompletion = t
	c.lastErr = nil
	c.mu.Unlock()
}

// RecordFailure notes a failed finish. Failed executions still count as
// completed so fixed-delay spacing keeps working.
func (c *ExecutionContext) RecordFailure(err error, t time.Time) {
	c.mu.Lock()
	c.lastErr = err
	c.lastCompletion = t
	c.mu.Unlock()
}

func (c *ExecutionContext) LastScheduled() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastScheduled
}

func (c *ExecutionContext) LastActualStart() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActualStart
}

func (c *ExecutionContext) LastCompletion() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCompletion
}

func (c *ExecutionContext) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *ExecutionContext) ExecutionCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
