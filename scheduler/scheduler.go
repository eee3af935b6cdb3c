package scheduler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jetleaf/jetleaf-scheduling/pkg/eventbus"
	"github.com/jetleaf/jetleaf-scheduling/pkg/logx"
	"github.com/jetleaf/jetleaf-scheduling/trigger"
)

const (
	// DefaultMaxConcurrency caps simultaneous job executions.
	DefaultMaxConcurrency = 10

	// DefaultQueueCapacity bounds the overflow queue.
	DefaultQueueCapacity = 1000
)

// Config controls the concurrent scheduler.
type Config struct {
	// MaxConcurrency is the cap on simultaneously running jobs (Cmax).
	MaxConcurrency int

	// QueueCapacity bounds the overflow queue of executions waiting for a
	// free slot (Qmax).
	QueueCapacity int

	// Timezone is the IANA zone the convenience registration methods bind
	// their triggers to. Empty means the runtime default.
	Timezone string
}

// pending is an execution parked in the overflow queue. done is closed when
// the execution has run, or when the scheduler abandoned it (err set first).
type pending struct {
	run  func()
	done chan struct{}
	err  error
}

// Scheduler runs scheduled tasks with an active-execution cap and a bounded
// overflow queue.
//
// The gate it exposes to tasks admits up to MaxConcurrency concurrent job
// bodies; excess executions wait in FIFO order, and queue overflow is
// surfaced to the task loop as ErrQueueFull.
type Scheduler struct {
	log logx.Logger
	bus eventbus.Bus

	maxConcurrency int
	queueCapacity  int
	zone           string
	loc            *time.Location

	mu       sync.Mutex
	tasks    map[string]*ScheduledTask
	active   int
	queue    []*pending
	shutdown bool
}

// New builds a scheduler. Non-positive config values fall back to the
// defaults; an unknown timezone falls back to the runtime default.
func New(cfg Config, log logx.Logger, bus eventbus.Bus) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}

	loc := time.Local
	zone := strings.TrimSpace(cfg.Timezone)
	if zone != "" {
		l, err := time.LoadLocation(zone)
		if err != nil {
			log.Warn("invalid timezone; falling back to Local", logx.String("tz", zone), logx.Err(err))
			zone = ""
		} else {
			loc = l
		}
	}

	return &Scheduler{
		log:            log,
		bus:            bus,
		maxConcurrency: cfg.MaxConcurrency,
		queueCapacity:  cfg.QueueCapacity,
		zone:           zone,
		loc:            loc,
		tasks:          make(map[string]*ScheduledTask),
	}
}

// Schedule registers and starts a task driven by trig.
//
// Schedule is idempotent by name: when a live task with the same name
// exists, that task is returned and a warning is logged.
func (s *Scheduler) Schedule(name string, trig trigger.Trigger, job Job) (*ScheduledTask, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("schedule: name required")
	}
	if job == nil {
		return nil, fmt.Errorf("schedule %q: job required", name)
	}
	if trig == nil {
		return nil, fmt.Errorf("schedule %q: trigger required", name)
	}

	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return nil, fmt.Errorf("schedule %q: %w", name, ErrShutdown)
	}
	if existing, ok := s.tasks[name]; ok {
		s.mu.Unlock()
		s.log.Warn("task already scheduled, returning existing", logx.String("task", name))
		return existing, nil
	}
	task := newScheduledTask(name, trig, job, s, s.log, s.bus)
	s.tasks[name] = task
	s.mu.Unlock()

	if err := task.Start(); err != nil {
		return nil, err
	}
	s.log.Debug("task scheduled", logx.String("task", name), logx.String("trigger", fmt.Sprintf("%v", trig)))
	return task, nil
}

// ScheduleAtFixedRate schedules job on a start-to-start cadence in the
// scheduler's default zone.
func (s *Scheduler) ScheduleAtFixedRate(name string, period, initialDelay time.Duration, job Job) (*ScheduledTask, error) {
	trig, err := trigger.New(trigger.Params{FixedRate: period, InitialDelay: initialDelay, Zone: s.zone})
	if err != nil {
		return nil, err
	}
	return s.Schedule(name, trig, job)
}

// ScheduleWithFixedDelay schedules job with end-to-start spacing in the
// scheduler's default zone.
func (s *Scheduler) ScheduleWithFixedDelay(name string, delay, initialDelay time.Duration, job Job) (*ScheduledTask, error) {
	trig, err := trigger.New(trigger.Params{FixedDelay: delay, InitialDelay: initialDelay, Zone: s.zone})
	if err != nil {
		return nil, err
	}
	return s.Schedule(name, trig, job)
}

// Shutdown stops the scheduler: further Schedule calls fail, queued
// executions are abandoned with ErrShutdown, and every task is cancelled
// with force propagated as mayInterrupt. Non-forced shutdown returns after
// all in-flight executions have finished. Shutdown is idempotent.
func (s *Scheduler) Shutdown(force bool) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return
	}
	s.shutdown = true
	tasks := make([]*ScheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	parked := s.queue
	s.queue = nil
	s.mu.Unlock()

	s.log.Info("shutdown requested", logx.Bool("force", force), logx.Int("tasks", len(tasks)), logx.Int("queued", len(parked)))

	// Unblock loops waiting in the overflow queue before cancelling, so a
	// non-forced cancel never waits on an execution that would never run.
	for _, p := range parked {
		p.err = ErrShutdown
		close(p.done)
	}

	for _, t := range tasks {
		t.Cancel(force)
	}

	s.mu.Lock()
	s.tasks = make(map[string]*ScheduledTask)
	s.mu.Unlock()

	s.log.Info("shutdown complete")
}

// IsShutdown reports whether Shutdown has been called.
func (s *Scheduler) IsShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

// ActiveCount is the number of job bodies currently executing.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// QueuedCount is the number of executions parked in the overflow queue.
func (s *Scheduler) QueuedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// TotalCount is the number of live tasks.
func (s *Scheduler) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Task returns the live task with the given name, if any.
func (s *Scheduler) Task(name string) (*ScheduledTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[name]
	return t, ok
}

// Tasks returns a snapshot of the live tasks.
func (s *Scheduler) Tasks() []*ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ScheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out
}

// ---- Concurrency gate ----

// execute admits run under the concurrency cap. It blocks until run has
// finished, or returns ErrQueueFull / ErrShutdown when run never started.
// The lock is never held across a job body.
func (s *Scheduler) execute(run func()) error {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return ErrShutdown
	}
	if s.active < s.maxConcurrency {
		s.active++
		s.mu.Unlock()
		s.runGated(run)
		return nil
	}
	if len(s.queue) >= s.queueCapacity {
		s.mu.Unlock()
		return ErrQueueFull
	}
	p := &pending{run: run, done: make(chan struct{})}
	s.queue = append(s.queue, p)
	s.mu.Unlock()

	<-p.done
	return p.err
}

// runGated runs an admitted execution; the caller has already accounted for
// it in active. On release it hands the freed slot to the queue head.
func (s *Scheduler) runGated(run func()) {
	defer func() {
		s.mu.Lock()
		s.active--
		var next *pending
		if !s.shutdown && len(s.queue) > 0 {
			next = s.queue[0]
			s.queue = s.queue[1:]
			s.active++
		}
		s.mu.Unlock()

		if next != nil {
			go func() {
				s.runGated(next.run)
				close(next.done)
			}()
		}
	}()
	run()
}

// ---- Diagnostics ----

// TaskInfo is a point-in-time view of one task.
type TaskInfo struct {
	Name            string
	Zone            string
	Trigger         string
	ExecutionCount  uint64
	LastScheduled   time.Time
	LastActualStart time.Time
	LastCompletion  time.Time
	NextFire        time.Time
	LastError       string
	Executing       bool
	Cancelled       bool
}

// Snapshot is a point-in-time diagnostic view of the scheduler.
type Snapshot struct {
	Active         int
	Queued         int
	Total          int
	MaxConcurrency int
	QueueCapacity  int
	Shutdown       bool
	Tasks          []TaskInfo
}

// Snapshot collects counts and per-task state for operators.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		Active:         s.active,
		Queued:         len(s.queue),
		Total:          len(s.tasks),
		MaxConcurrency: s.maxConcurrency,
		QueueCapacity:  s.queueCapacity,
		Shutdown:       s.shutdown,
	}
	tasks := make([]*ScheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	for _, t := range tasks {
		info := TaskInfo{
			Name:            t.Name(),
			Zone:            t.Location().String(),
			Trigger:         fmt.Sprintf("%v", t.Trigger()),
			ExecutionCount:  t.ExecutionCount(),
			LastScheduled:   t.Context().LastScheduled(),
			LastActualStart: t.Context().LastActualStart(),
			LastCompletion:  t.Context().LastCompletion(),
			Executing:       t.IsExecuting(),
			Cancelled:       t.IsCancelled(),
		}
		if err := t.LastError(); err != nil {
			info.LastError = err.Error()
		}
		if next, err := t.NextFireTime(); err == nil {
			info.NextFire = next
		}
		snap.Tasks = append(snap.Tasks, info)
	}
	return snap
}
