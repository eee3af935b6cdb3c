// Package registrar is the programmatic registration surface of
// jetleaf-scheduling: tasks registered before the runtime is up are held as
// pending and scheduled when Ready runs; Destroy tears everything down.
package registrar

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jetleaf/jetleaf-scheduling/pkg/eventbus"
	"github.com/jetleaf/jetleaf-scheduling/pkg/logx"
	"github.com/jetleaf/jetleaf-scheduling/scheduler"
	"github.com/jetleaf/jetleaf-scheduling/trigger"
)

// Config carries the environment-sourced scheduler defaults.
type Config struct {
	// MaxConcurrency maps to scheduler.max-concurrency.
	MaxConcurrency int

	// QueueCapacity maps to scheduler.queue-capacity.
	QueueCapacity int

	// Timezone maps to scheduler.timezone and is the default zone for
	// registered triggers.
	Timezone string

	// NamePrefix maps to scheduler.name-prefix and feeds generated task
	// names.
	NamePrefix string
}

// Runnable is a capability-bearing task object.
type Runnable interface {
	Run(ctx context.Context) error
}

// RunnableFunc adapts a bare closure to Runnable.
type RunnableFunc func(ctx context.Context) error

func (f RunnableFunc) Run(ctx context.Context) error { return f(ctx) }

// holder is a registration parked until the scheduler is up.
type holder struct {
	name string
	trig trigger.Trigger
	run  Runnable
}

// Registrar collects task registrations and binds them to a scheduler.
//
// Lifecycle: registrations before Ready are held pending; Ready builds a
// scheduler from Config (unless one was attached) and drains the pending
// set; Destroy cancels live tasks and shuts the scheduler down. A holder
// transitions pending -> live exactly once.
type Registrar struct {
	log logx.Logger
	bus eventbus.Bus
	cfg Config

	mu      sync.Mutex
	sched   *scheduler.Scheduler
	ready   bool
	pending map[string]holder
	tasks   map[string]*scheduler.ScheduledTask
}

func New(cfg Config, log logx.Logger, bus eventbus.Bus) *Registrar {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Registrar{
		log:     log,
		bus:     bus,
		cfg:     cfg,
		pending: make(map[string]holder),
		tasks:   make(map[string]*scheduler.ScheduledTask),
	}
}

// AttachScheduler installs an externally built scheduler. Must run before
// Ready; afterwards it is ignored.
func (r *Registrar) AttachScheduler(s *scheduler.Scheduler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		r.log.Warn("scheduler attach ignored: registrar already ready")
		return
	}
	r.sched = s
}

// Scheduler returns the bound scheduler (nil before Ready when none was
// attached).
func (r *Registrar) Scheduler() *scheduler.Scheduler {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sched
}

// RegisterCron registers run on a 6-field cron expression.
func (r *Registrar) RegisterCron(name, expression string, run Runnable) error {
	return r.Register(name, trigger.Params{Expression: expression}, run)
}

// RegisterFixedRate registers run on a start-to-start cadence.
func (r *Registrar) RegisterFixedRate(name string, period, initialDelay time.Duration, run Runnable) error {
	return r.Register(name, trigger.Params{FixedRate: period, InitialDelay: initialDelay}, run)
}

// RegisterFixedDelay registers run with end-to-start spacing.
func (r *Registrar) RegisterFixedDelay(name string, delay, initialDelay time.Duration, run Runnable) error {
	return r.Register(name, trigger.Params{FixedDelay: delay, InitialDelay: initialDelay}, run)
}

// RegisterPeriodic registers run on a simple actual-start-anchored period.
func (r *Registrar) RegisterPeriodic(name string, period time.Duration, run Runnable) error {
	return r.Register(name, trigger.Params{Period: period}, run)
}

// Register builds the trigger for params and registers run under name.
// The registrar's default zone applies when params carry none.
func (r *Registrar) Register(name string, params trigger.Params, run Runnable) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("register: task name required")
	}
	if run == nil {
		return fmt.Errorf("register %q: runnable required", name)
	}
	if params.Zone == "" {
		params.Zone = r.cfg.Timezone
	}
	trig, err := trigger.New(params)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.pending[name]; dup {
		return fmt.Errorf("register %q: name already registered", name)
	}
	if _, dup := r.tasks[name]; dup {
		return fmt.Errorf("register %q: name already registered", name)
	}

	if r.ready && r.sched != nil {
		return r.scheduleLocked(holder{name: name, trig: trig, run: run})
	}

	// Scheduler not up yet: park the holder; Ready drains it.
	r.pending[name] = holder{name: name, trig: trig, run: run}
	r.log.Debug("registration parked until ready", logx.String("task", name))
	return nil
}

// Ready brings the registrar live: it builds a default scheduler from Config
// when none was attached, then schedules every pending holder.
func (r *Registrar) Ready() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready {
		return nil
	}
	if r.sched == nil {
		r.sched = scheduler.New(scheduler.Config{
			MaxConcurrency: r.cfg.MaxConcurrency,
			QueueCapacity:  r.cfg.QueueCapacity,
			Timezone:       r.cfg.Timezone,
		}, r.log, r.bus)
	}
	r.ready = true

	var firstErr error
	for name, h := range r.pending {
		delete(r.pending, name)
		if err := r.scheduleLocked(h); err != nil {
			r.log.Error("pending task failed to schedule", logx.String("task", name), logx.Err(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	r.log.Info("registrar ready", logx.Int("tasks", len(r.tasks)))
	return firstErr
}

// scheduleLocked forwards one holder to the scheduler. Call with r.mu held.
func (r *Registrar) scheduleLocked(h holder) error {
	task, err := r.sched.Schedule(h.name, h.trig, h.run.Run)
	if err != nil {
		return err
	}
	r.tasks[h.name] = task
	return nil
}

// Destroy cancels every live task (non-forced), shuts the scheduler down and
// clears the registrar. Idempotent.
func (r *Registrar) Destroy() {
	r.mu.Lock()
	sched := r.sched
	tasks := make([]*scheduler.ScheduledTask, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	r.tasks = make(map[string]*scheduler.ScheduledTask)
	r.pending = make(map[string]holder)
	r.sched = nil
	r.mu.Unlock()

	for _, t := range tasks {
		t.Cancel(false)
	}
	if sched != nil {
		sched.Shutdown(false)
	}
	r.log.Info("registrar destroyed", logx.Int("tasks", len(tasks)))
}

// Tasks is a read-only snapshot of the live tasks.
func (r *Registrar) Tasks() []*scheduler.ScheduledTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*scheduler.ScheduledTask, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	return out
}

// HasTasks reports whether any task is live or pending.
func (r *Registrar) HasTasks() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks) > 0 || len(r.pending) > 0
}
