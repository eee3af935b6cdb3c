package registrar

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jetleaf/jetleaf-scheduling/pkg/logx"
	"github.com/jetleaf/jetleaf-scheduling/scheduler"
	"github.com/jetleaf/jetleaf-scheduling/trigger"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func nopRun() Runnable {
	return RunnableFunc(func(context.Context) error { return nil })
}

func TestRegistrationsParkUntilReady(t *testing.T) {
	t.Parallel()
	r := New(Config{Timezone: "UTC"}, logx.Nop(), nil)
	t.Cleanup(r.Destroy)

	var runs atomic.Int64
	err := r.RegisterPeriodic("ticker", 10*time.Millisecond, RunnableFunc(func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	if err != nil {
		t.Fatalf("RegisterPeriodic: %v", err)
	}

	if !r.HasTasks() {
		t.Fatal("HasTasks false with a pending registration")
	}
	if len(r.Tasks()) != 0 {
		t.Fatal("pending registration already live")
	}

	// Nothing runs until Ready.
	time.Sleep(50 * time.Millisecond)
	if runs.Load() != 0 {
		t.Fatal("pending task ran before Ready")
	}

	if err := r.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if len(r.Tasks()) != 1 {
		t.Fatalf("live tasks = %d, want 1", len(r.Tasks()))
	}
	waitFor(t, 2*time.Second, func() bool { return runs.Load() >= 2 })
}

func TestRegisterAfterReadySchedulesImmediately(t *testing.T) {
	t.Parallel()
	r := New(Config{}, logx.Nop(), nil)
	t.Cleanup(r.Destroy)
	if err := r.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}

	var runs atomic.Int64
	err := r.RegisterFixedRate("immediate", 10*time.Millisecond, 0, RunnableFunc(func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	if err != nil {
		t.Fatalf("RegisterFixedRate: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return runs.Load() >= 1 })
}

func TestRegisterVariantsBuildMatchingTriggers(t *testing.T) {
	t.Parallel()
	r := New(Config{Timezone: "UTC"}, logx.Nop(), nil)
	t.Cleanup(r.Destroy)

	if err := r.RegisterCron("c", "0 0 * * * *", nopRun()); err != nil {
		t.Fatalf("RegisterCron: %v", err)
	}
	if err := r.RegisterFixedRate("fr", time.Hour, time.Hour, nopRun()); err != nil {
		t.Fatalf("RegisterFixedRate: %v", err)
	}
	if err := r.RegisterFixedDelay("fd", time.Hour, time.Hour, nopRun()); err != nil {
		t.Fatalf("RegisterFixedDelay: %v", err)
	}
	if err := r.RegisterPeriodic("p", time.Hour, nopRun()); err != nil {
		t.Fatalf("RegisterPeriodic: %v", err)
	}
	if err := r.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}

	byName := map[string]*scheduler.ScheduledTask{}
	for _, task := range r.Tasks() {
		byName[task.Name()] = task
	}
	if _, ok := byName["c"].Trigger().(*trigger.CronTrigger); !ok {
		t.Fatalf("c trigger = %T", byName["c"].Trigger())
	}
	if _, ok := byName["fr"].Trigger().(*trigger.FixedRateTrigger); !ok {
		t.Fatalf("fr trigger = %T", byName["fr"].Trigger())
	}
	if _, ok := byName["fd"].Trigger().(*trigger.FixedDelayTrigger); !ok {
		t.Fatalf("fd trigger = %T", byName["fd"].Trigger())
	}
	if _, ok := byName["p"].Trigger().(*trigger.PeriodicTrigger); !ok {
		t.Fatalf("p trigger = %T", byName["p"].Trigger())
	}

	// The registrar default zone reached the triggers.
	if got := byName["c"].Location().String(); got != "UTC" {
		t.Fatalf("zone = %s, want UTC", got)
	}
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	t.Parallel()
	r := New(Config{}, logx.Nop(), nil)
	t.Cleanup(r.Destroy)

	if err := r.RegisterPeriodic("dup", time.Hour, nopRun()); err != nil {
		t.Fatalf("RegisterPeriodic: %v", err)
	}
	if err := r.RegisterPeriodic("dup", time.Hour, nopRun()); err == nil {
		t.Fatal("duplicate pending name accepted")
	}

	if err := r.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if err := r.RegisterPeriodic("dup", time.Hour, nopRun()); err == nil {
		t.Fatal("duplicate live name accepted")
	}

	if err := r.RegisterPeriodic("", time.Hour, nopRun()); err == nil {
		t.Fatal("empty name accepted")
	}
	if err := r.RegisterPeriodic("nilrun", time.Hour, nil); err == nil {
		t.Fatal("nil runnable accepted")
	}
	if err := r.RegisterCron("badcron", "* * *", nopRun()); err == nil {
		t.Fatal("invalid cron accepted")
	}
	if err := r.Register("notrigger", trigger.Params{}, nopRun()); err == nil {
		t.Fatal("empty trigger params accepted")
	}
}

func TestAttachSchedulerIsUsed(t *testing.T) {
	t.Parallel()
	s := scheduler.New(scheduler.Config{}, logx.Nop(), nil)
	t.Cleanup(func() { s.Shutdown(true) })

	r := New(Config{}, logx.Nop(), nil)
	r.AttachScheduler(s)

	if err := r.RegisterPeriodic("attached", time.Hour, nopRun()); err != nil {
		t.Fatalf("RegisterPeriodic: %v", err)
	}
	if err := r.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if r.Scheduler() != s {
		t.Fatal("registrar did not keep the attached scheduler")
	}
	if _, ok := s.Task("attached"); !ok {
		t.Fatal("task not scheduled on the attached scheduler")
	}
}

func TestReadyIdempotent(t *testing.T) {
	t.Parallel()
	r := New(Config{}, logx.Nop(), nil)
	t.Cleanup(r.Destroy)

	if err := r.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	first := r.Scheduler()
	if err := r.Ready(); err != nil {
		t.Fatalf("second Ready: %v", err)
	}
	if r.Scheduler() != first {
		t.Fatal("second Ready replaced the scheduler")
	}
}

func TestDestroyCancelsAndShutsDown(t *testing.T) {
	t.Parallel()
	r := New(Config{}, logx.Nop(), nil)

	if err := r.RegisterPeriodic("doomed", 10*time.Millisecond, nopRun()); err != nil {
		t.Fatalf("RegisterPeriodic: %v", err)
	}
	if err := r.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	sched := r.Scheduler()
	tasks := r.Tasks()

	r.Destroy()

	for _, task := range tasks {
		if !task.IsCancelled() {
			t.Fatalf("task %s survived Destroy", task.Name())
		}
	}
	if !sched.IsShutdown() {
		t.Fatal("scheduler not shut down by Destroy")
	}
	if r.HasTasks() {
		t.Fatal("HasTasks true after Destroy")
	}

	// Idempotent.
	r.Destroy()
}
