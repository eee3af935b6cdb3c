package trigger

import (
	"time"

	"github.com/jetleaf/jetleaf-scheduling/cronexpr"
)

// CronTrigger fires on the calendar pattern of a 6-field cron expression,
// evaluated on the wall clock of its zone.
type CronTrigger struct {
	expr *cronexpr.Expression
	loc  *time.Location
}

// NewCronTrigger parses expression and binds it to loc (nil means time.Local).
func NewCronTrigger(expression string, loc *time.Location) (*CronTrigger, error) {
	expr, err := cronexpr.Parse(expression)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	return &CronTrigger{expr: expr, loc: loc}, nil
}

// Expression returns the parsed cron expression.
func (t *CronTrigger) Expression() *cronexpr.Expression { return t.expr }

func (t *CronTrigger) Location() *time.Location { return t.loc }

// NextFireTime computes the first match after the last actual start, or after
// now when the task has never run.
func (t *CronTrigger) NextFireTime(ctx Context) (time.Time, error) {
	ref := ctx.LastActualStart()
	if ref.IsZero() {
		ref = time.Now()
	}
	return t.expr.Next(ref.In(t.loc), t.loc)
}

func (t *CronTrigger) String() string {
	return "cron[" + t.expr.String() + "]"
}
