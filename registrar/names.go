package registrar

import "strings"

// Task-name kinds used by the generated form.
const (
	KindCron      = "cron"
	KindScheduled = "scheduled"
	KindPeriodic  = "periodic"
)

// TaskName derives a stable task name from a declaring scope and operation.
//
// With a prefix configured the name is "{prefix}-{operation}"; otherwise it
// is "{kind}-{scope}-{simple}-{operation}" where simple is the last
// dot-separated segment of scope. Either way the result is lowercased.
func TaskName(prefix, kind, scope, operation string) string {
	prefix = strings.TrimSpace(prefix)
	operation = strings.TrimSpace(operation)
	if prefix != "" {
		return strings.ToLower(prefix + "-" + operation)
	}

	scope = strings.TrimSpace(scope)
	simple := scope
	if i := strings.LastIndexByte(scope, '.'); i >= 0 {
		simple = scope[i+1:]
	}
	if kind == "" {
		kind = KindScheduled
	}
	return strings.ToLower(kind + "-" + scope + "-" + simple + "-" + operation)
}

// kindOf maps the chosen trigger kind to its name-generator label.
func kindOf(kinds []string) string {
	if len(kinds) == 0 {
		return KindScheduled
	}
	switch kinds[0] {
	case "cron":
		return KindCron
	case "periodic":
		return KindPeriodic
	default:
		return KindScheduled
	}
}
