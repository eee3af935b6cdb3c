package trigger

import (
	"fmt"
	"time"
)

// FixedRateTrigger fires on a start-to-start cadence: each fire instant is
// the previous scheduled instant plus the period, independent of how long
// the task ran.
type FixedRateTrigger struct {
	period       time.Duration
	initialDelay time.Duration
	loc          *time.Location
}

// NewFixedRateTrigger builds a fixed-rate trigger. period must be strictly
// positive; initialDelay offsets only the first fire.
func NewFixedRateTrigger(period, initialDelay time.Duration, loc *time.Location) (*FixedRateTrigger, error) {
	if period <= 0 {
		return nil, fmt.Errorf("fixed-rate period must be > 0, got %s", period)
	}
	if initialDelay < 0 {
		return nil, fmt.Errorf("initial delay must be >= 0, got %s", initialDelay)
	}
	if loc == nil {
		loc = time.Local
	}
	return &FixedRateTrigger{period: period, initialDelay: initialDelay, loc: loc}, nil
}

func (t *FixedRateTrigger) Period() time.Duration    { return t.period }
func (t *FixedRateTrigger) Location() *time.Location { return t.loc }

func (t *FixedRateTrigger) NextFireTime(ctx Context) (time.Time, error) {
	last := ctx.LastScheduled()
	if last.IsZero() {
		return time.Now().In(t.loc).Add(t.initialDelay), nil
	}
	return last.In(t.loc).Add(t.period), nil
}

func (t *FixedRateTrigger) String() string {
	return fmt.Sprintf("fixed-rate[%s]", t.period)
}

// FixedDelayTrigger fires a fixed delay after the previous completion, so the
// task's own runtime stretches the cadence (end-to-start spacing).
type FixedDelayTrigger struct {
	delay        time.Duration
	initialDelay time.Duration
	loc          *time.Location
}

// NewFixedDelayTrigger builds a fixed-delay trigger. delay must be strictly
// positive; initialDelay offsets only the first fire.
func NewFixedDelayTrigger(delay, initialDelay time.Duration, loc *time.Location) (*FixedDelayTrigger, error) {
	if delay <= 0 {
		return nil, fmt.Errorf("fixed delay must be > 0, got %s", delay)
	}
	if initialDelay < 0 {
		return nil, fmt.Errorf("initial delay must be >= 0, got %s", initialDelay)
	}
	if loc == nil {
		loc = time.Local
	}
	return &FixedDelayTrigger{delay: delay, initialDelay: initialDelay, loc: loc}, nil
}

func (t *FixedDelayTrigger) Delay() time.Duration     { return t.delay }
func (t *FixedDelayTrigger) Location() *time.Location { return t.loc }

func (t *FixedDelayTrigger) NextFireTime(ctx Context) (time.Time, error) {
	last := ctx.LastCompletion()
	if last.IsZero() {
		return time.Now().In(t.loc).Add(t.initialDelay), nil
	}
	return last.In(t.loc).Add(t.delay), nil
}

func (t *FixedDelayTrigger) String() string {
	return fmt.Sprintf("fixed-delay[%s]", t.delay)
}

// PeriodicTrigger fires one period after the previous actual start. Unlike
// FixedRateTrigger it anchors on when the task really began, so queueing and
// gate contention accumulate as drift.
type PeriodicTrigger struct {
	period time.Duration
	loc    *time.Location
}

// NewPeriodicTrigger builds a simple periodic trigger. period must be
// strictly positive.
func NewPeriodicTrigger(period time.Duration, loc *time.Location) (*PeriodicTrigger, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be > 0, got %s", period)
	}
	if loc == nil {
		loc = time.Local
	}
	return &PeriodicTrigger{period: period, loc: loc}, nil
}

func (t *PeriodicTrigger) Period() time.Duration    { return t.period }
func (t *PeriodicTrigger) Location() *time.Location { return t.loc }

func (t *PeriodicTrigger) NextFireTime(ctx Context) (time.Time, error) {
	last := ctx.LastActualStart()
	if last.IsZero() {
		return time.Now().In(t.loc), nil
	}
	return last.In(t.loc).Add(t.period), nil
}

func (t *PeriodicTrigger) String() string {
	return fmt.Sprintf("periodic[%s]", t.period)
}
