package trigger

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoTrigger is returned by New when the Params bundle sets none of the
// four trigger kinds.
var ErrNoTrigger = errors.New(
	"no trigger specified: set one of expression, fixed-delay, fixed-rate or period")

// Params is the cross-boundary declaration shape for a trigger. Exactly one
// of Expression, FixedRate, FixedDelay, Period should be set; New applies a
// defensive precedence when callers set more than one.
type Params struct {
	// Expression is a 6-field cron expression.
	Expression string

	// FixedRate is a start-to-start cadence.
	FixedRate time.Duration

	// FixedDelay is an end-to-start spacing.
	FixedDelay time.Duration

	// Period is a simple periodic interval anchored on actual starts.
	Period time.Duration

	// InitialDelay offsets the first fire of FixedRate/FixedDelay triggers.
	InitialDelay time.Duration

	// Zone is an IANA time-zone id. Empty means the runtime default.
	Zone string
}

// Kinds returns which of the four trigger kinds are set, in precedence order.
func (p Params) Kinds() []string {
	var kinds []string
	if p.Expression != "" {
		kinds = append(kinds, "cron")
	}
	if p.FixedDelay != 0 {
		kinds = append(kinds, "fixed-delay")
	}
	if p.FixedRate != 0 {
		kinds = append(kinds, "fixed-rate")
	}
	if p.Period != 0 {
		kinds = append(kinds, "periodic")
	}
	return kinds
}

// New builds the concrete trigger for a Params bundle.
//
// Precedence when more than one kind is set:
// cron > fixed-delay > fixed-rate > period. Users should set exactly one;
// registrar.Declare rejects conflicting declarations before they reach New.
func New(p Params) (Trigger, error) {
	loc, err := resolveZone(p.Zone)
	if err != nil {
		return nil, err
	}

	switch {
	case p.Expression != "":
		return NewCronTrigger(p.Expression, loc)
	case p.FixedDelay != 0:
		return NewFixedDelayTrigger(p.FixedDelay, p.InitialDelay, loc)
	case p.FixedRate != 0:
		return NewFixedRateTrigger(p.FixedRate, p.InitialDelay, loc)
	case p.Period != 0:
		return NewPeriodicTrigger(p.Period, loc)
	default:
		return nil, ErrNoTrigger
	}
}

func resolveZone(zone string) (*time.Location, error) {
	if zone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", zone, err)
	}
	return loc, nil
}
