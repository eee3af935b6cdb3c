package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jetleaf/jetleaf-scheduling/pkg/eventbus"
	"github.com/jetleaf/jetleaf-scheduling/pkg/logx"
	"github.com/jetleaf/jetleaf-scheduling/trigger"
)

// Job is the task body. The context is cancelled when the task is cancelled
// with mayInterrupt=true; a job that wants to be interruptible must observe
// it.
type Job func(ctx context.Context) error

// failureWarnEvery bounds how often a persistently failing task is logged at
// warn level. The execution context still records every failure.
const failureWarnEvery = 5 * time.Second

// gate admits a task execution under the scheduler's concurrency cap.
// execute blocks until run has finished (possibly after waiting in the
// overflow queue) and returns an error when admission failed and run never
// started.
type gate interface {
	execute(run func()) error
}

// directGate runs executions ungated. Used when a task is built without a
// scheduler.
type directGate struct{}

func (directGate) execute(run func()) error {
	run()
	return nil
}

// ScheduledTask binds a job to a trigger and drives the loop:
// consult trigger, sleep until the fire instant, execute under the gate,
// record the outcome, reschedule.
//
// At most one execution of a task is in flight at any time; the next fire is
// armed only after the previous execution finished.
type ScheduledTask struct {
	name    string
	job     Job
	trig    trigger.Trigger
	execCtx *ExecutionContext
	gate    gate
	log     logx.Logger
	bus     eventbus.Bus

	failWarn *rate.Limiter

	// runCtx is handed to the job; stopRun cancels it on forced cancel.
	runCtx  context.Context
	stopRun context.CancelFunc

	mu        sync.Mutex
	started   bool
	cancelled bool
	executing bool
	timer     *time.Timer
	inflight  chan struct{} // closed when the current execution finishes
}

func newScheduledTask(name string, trig trigger.Trigger, job Job, g gate, log logx.Logger, bus eventbus.Bus) *ScheduledTask {
	if g == nil {
		g = directGate{}
	}
	runCtx, stopRun := context.WithCancel(context.Background())
	return &ScheduledTask{
		name:     name,
		job:      job,
		trig:     trig,
		execCtx:  NewExecutionContext(),
		gate:     g,
		log:      log.With(logx.String("task", name)),
		bus:      bus,
		failWarn: rate.NewLimiter(rate.Every(failureWarnEvery), 1),
		runCtx:   runCtx,
		stopRun:  stopRun,
	}
}

// Start arms the first fire. It is idempotent while the task is live and
// fails with ErrTaskCancelled once the task has been cancelled.
func (t *ScheduledTask) Start() error {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return fmt.Errorf("start %q: %w", t.name, ErrTaskCancelled)
	}
	if t.started {
		t.mu.Unlock()
		return nil
	}
	t.started = true
	t.mu.Unlock()

	t.scheduleNext()
	return nil
}

// Cancel stops the task: no further fires are armed and the pending timer is
// dropped. With mayInterrupt=false it waits for an in-flight execution to
// finish. With mayInterrupt=true it returns immediately and cancels the
// job's context; the running job is not preempted beyond that.
//
// It returns false when the task was already cancelled.
func (t *ScheduledTask) Cancel(mayInterrupt bool) bool {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return false
	}
	t.cancelled = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	done := t.inflight
	executing := t.executing
	t.mu.Unlock()

	publish(t.bus, EventTaskCancelled, ExecutionEvent{Task: t.name})

	if mayInterrupt {
		t.stopRun()
		if executing {
			t.log.Warn("cancel(true): running job is not preempted, only its context is cancelled")
		}
		return true
	}

	if done != nil {
		<-done
	}
	return true
}

// scheduleNext consults the trigger and arms a single-shot timer for the
// next fire instant. A fire instant already in the past executes immediately
// (behind-schedule catch-up); earlier missed fires are not enumerated.
func (t *ScheduledTask) scheduleNext() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return
	}

	fire, err := t.trig.NextFireTime(t.execCtx)
	if err != nil {
		t.log.Error("trigger evaluation failed, task stops", logx.Err(err))
		return
	}
	if fire.IsZero() {
		t.log.Debug("trigger declared completion, task stops")
		return
	}

	// Delay math on absolute time; wall-clock conversions stay inside the
	// trigger where DST matters.
	delay := time.Until(fire)
	if delay < 0 {
		delay = 0
	}
	t.timer = time.AfterFunc(delay, t.executeOnce)
}

// executeOnce runs one gated execution and reschedules.
func (t *ScheduledTask) executeOnce() {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.executing = true
	done := make(chan struct{})
	t.inflight = done
	runCtx := t.runCtx
	t.mu.Unlock()

	loc := t.trig.Location()
	execID := newExecutionID()

	// The scheduled stamp is taken before gating on purpose: fixed-rate
	// cadence must not stretch while the execution waits for a permit.
	t.execCtx.RecordScheduled(time.Now().In(loc))
	publish(t.bus, EventTaskScheduled, ExecutionEvent{ID: execID, Task: t.name})

	gateErr := t.gate.execute(func() {
		start := time.Now().In(loc)
		t.execCtx.RecordActualStart(start)
		publish(t.bus, EventTaskStarted, ExecutionEvent{ID: execID, Task: t.name, Started: start})

		err := t.runJob(runCtx)

		end := time.Now().In(loc)
		if err != nil {
			t.execCtx.RecordFailure(err, end)
			publish(t.bus, EventTaskFailed, ExecutionEvent{
				ID: execID, Task: t.name, Started: start, Duration: end.Sub(start), Error: err.Error(),
			})
			if t.failWarn.Allow() {
				t.log.Warn("job failed", logx.String("exec", execID), logx.Err(err))
			}
			return
		}
		t.execCtx.RecordCompletion(end)
		publish(t.bus, EventTaskCompleted, ExecutionEvent{
			ID: execID, Task: t.name, Started: start, Duration: end.Sub(start),
		})
	})
	if gateErr != nil {
		// Admission failed (queue full or shutdown): the job never ran.
		// Record it as a failed execution and keep the loop alive.
		t.execCtx.RecordFailure(gateErr, time.Now().In(loc))
		publish(t.bus, EventTaskFailed, ExecutionEvent{ID: execID, Task: t.name, Error: gateErr.Error()})
		if t.failWarn.Allow() {
			t.log.Warn("execution rejected at admission", logx.Err(gateErr))
		}
	}

	t.mu.Lock()
	t.executing = false
	t.inflight = nil
	cancelled := t.cancelled
	t.mu.Unlock()
	close(done)

	if !cancelled {
		t.scheduleNext()
	}
}

// runJob invokes the job and contains panics: a panicking job is recorded as
// a failed execution and the loop continues.
func (t *ScheduledTask) runJob(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panic: %v", r)
		}
	}()
	return t.job(ctx)
}

// ---- Observers ----

func (t *ScheduledTask) Name() string              { return t.name }
func (t *ScheduledTask) Trigger() trigger.Trigger  { return t.trig }
func (t *ScheduledTask) Location() *time.Location  { return t.trig.Location() }
func (t *ScheduledTask) Context() *ExecutionContext { return t.execCtx }

func (t *ScheduledTask) IsExecuting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.executing
}

func (t *ScheduledTask) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

func (t *ScheduledTask) ExecutionCount() uint64 { return t.execCtx.ExecutionCount() }

func (t *ScheduledTask) LastError() error { return t.execCtx.LastError() }

// NextFireTime recomputes the next fire instant on demand. Zero time means
// the trigger has no further executions.
func (t *ScheduledTask) NextFireTime() (time.Time, error) {
	return t.trig.NextFireTime(t.execCtx)
}
