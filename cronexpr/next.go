package cronexpr

import "time"

// Field indices into Expression.fields.
const (
	fieldSecond = iota
	fieldMinute
	fieldHour
	fieldDayOfMonth
	fieldMonth
	fieldDayOfWeek
)

// searchYears bounds the forward search of Next. A syntactically valid
// expression that can never fire (e.g. "0 0 0 30 2 *") is reported as a
// NoMatchError instead of looping forever.
const searchYears = 5

// Next returns the smallest instant strictly after `after` whose wall-clock
// components in loc all lie in the expression's allowed sets.
//
// The result is expressed in loc (nil means time.Local). Next is a pure
// function of (after, loc, expression).
func (e *Expression) Next(after time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}

	// Candidate search starts one second past the reference, at second
	// granularity. Each rejected component skips the candidate ahead to the
	// first instant the component could change, which keeps the search cheap
	// for sparse expressions while producing the same first match as a
	// one-second walk.
	t := after.In(loc).Truncate(time.Second).Add(time.Second)
	limit := after.In(loc).AddDate(searchYears, 0, 0)

	for !t.After(limit) {
		switch {
		case !e.fields[fieldMonth].has(int(t.Month())):
			t = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
		case !e.dayMatches(t):
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
		case !e.fields[fieldHour].has(t.Hour()):
			// Step back to the start of the wall-clock hour on absolute time:
			// time.Date maps the repeated hour of a fall-back transition to its
			// first occurrence, which would never advance past it.
			t = t.Add(-time.Duration(t.Minute())*time.Minute - time.Duration(t.Second())*time.Second).Add(time.Hour)
		case !e.fields[fieldMinute].has(t.Minute()):
			t = t.Truncate(time.Minute).Add(time.Minute)
		case !e.fields[fieldSecond].has(t.Second()):
			t = t.Add(time.Second)
		default:
			return t, nil
		}
	}
	return time.Time{}, &NoMatchError{Expr: e.source, After: after}
}

// dayMatches tests day-of-month and day-of-week together. Both are AND-ed:
// wildcards accept everything, so a restricted field constrains the match on
// its own. time.Weekday already uses Sunday=0, matching the canonical form
// the parser folds 7 into.
func (e *Expression) dayMatches(t time.Time) bool {
	return e.fields[fieldDayOfMonth].has(t.Day()) &&
		e.fields[fieldDayOfWeek].has(int(t.Weekday()))
}
