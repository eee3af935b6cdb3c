package registrar

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jetleaf/jetleaf-scheduling/trigger"
)

// Declaration is one discovered scheduled entity, as delivered by an
// external declaration surface (a config table, a struct scan, ...).
type Declaration struct {
	// Name is the task name; empty means a name is generated from Scope and
	// Operation by TaskName (prefix form when a prefix is configured).
	Name string

	// Scope and Operation identify the declaring unit for name generation,
	// e.g. Scope "billing.Reporter", Operation "Flush".
	Scope     string
	Operation string

	// Handler is the unit of work: a Runnable, or a function of one of the
	// parameterless shapes (optionally taking a context, optionally
	// returning an error).
	Handler any

	// Params is the trigger declaration. Exactly one kind must be set.
	Params trigger.Params
}

// Declare validates a declaration and routes it through the trigger builder
// into the registrar.
//
// Unlike the defensive precedence of trigger.New, a declaration with
// conflicting trigger kinds is rejected here, at registration time.
func (r *Registrar) Declare(d Declaration) error {
	entity := d.Name
	if entity == "" {
		entity = strings.TrimSpace(d.Scope + "." + d.Operation)
	}

	kinds := d.Params.Kinds()
	if len(kinds) > 1 {
		return fmt.Errorf("declaration %q: conflicting trigger parameters (%s)",
			entity, strings.Join(kinds, ", "))
	}

	run, err := adaptHandler(d.Handler)
	if err != nil {
		return fmt.Errorf("declaration %q: %w", entity, err)
	}

	name := strings.TrimSpace(d.Name)
	if name == "" {
		name = TaskName(r.cfg.NamePrefix, kindOf(kinds), d.Scope, d.Operation)
	}

	return r.Register(name, d.Params, run)
}

// adaptHandler turns a declared handler into a Runnable. Scheduled handlers
// must be parameterless apart from an optional context.
func adaptHandler(v any) (Runnable, error) {
	switch h := v.(type) {
	case nil:
		return nil, fmt.Errorf("handler required")
	case Runnable:
		return h, nil
	case func(ctx context.Context) error:
		return RunnableFunc(h), nil
	case func(ctx context.Context):
		return RunnableFunc(func(ctx context.Context) error {
			h(ctx)
			return nil
		}), nil
	case func() error:
		return RunnableFunc(func(context.Context) error { return h() }), nil
	case func():
		return RunnableFunc(func(context.Context) error {
			h()
			return nil
		}), nil
	}

	// Anything else func-shaped gets a precise diagnostic.
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Func {
		return nil, fmt.Errorf("scheduled handlers must be parameterless (got %s)", t)
	}
	return nil, fmt.Errorf("unsupported handler type %T", v)
}
