package registrar

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jetleaf/jetleaf-scheduling/pkg/logx"
	"github.com/jetleaf/jetleaf-scheduling/trigger"
)

func TestDeclareHandlerShapes(t *testing.T) {
	t.Parallel()
	r := New(Config{}, logx.Nop(), nil)
	t.Cleanup(r.Destroy)
	if err := r.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}

	var runs atomic.Int64
	handlers := map[string]any{
		"plain":    func() { runs.Add(1) },
		"erroring": func() error { runs.Add(1); return nil },
		"ctx":      func(context.Context) { runs.Add(1) },
		"ctx-err":  func(context.Context) error { runs.Add(1); return nil },
		"runnable": RunnableFunc(func(context.Context) error { runs.Add(1); return nil }),
	}

	for name, h := range handlers {
		err := r.Declare(Declaration{
			Name:    name,
			Handler: h,
			Params:  trigger.Params{Period: 20 * time.Millisecond},
		})
		if err != nil {
			t.Fatalf("Declare(%s): %v", name, err)
		}
	}

	waitFor(t, 5*time.Second, func() bool { return runs.Load() >= int64(len(handlers)) })
}

func TestDeclareRejectsParameterizedHandlers(t *testing.T) {
	t.Parallel()
	r := New(Config{}, logx.Nop(), nil)
	t.Cleanup(r.Destroy)

	err := r.Declare(Declaration{
		Name:    "withargs",
		Handler: func(int) {},
		Params:  trigger.Params{Period: time.Second},
	})
	if err == nil {
		t.Fatal("parameterized handler accepted")
	}
	if !strings.Contains(err.Error(), "parameterless") {
		t.Fatalf("error %q does not explain the parameterless rule", err)
	}
	if !strings.Contains(err.Error(), "withargs") {
		t.Fatalf("error %q does not name the entity", err)
	}

	err = r.Declare(Declaration{
		Name:    "notafunc",
		Handler: 42,
		Params:  trigger.Params{Period: time.Second},
	})
	if err == nil {
		t.Fatal("non-function handler accepted")
	}

	err = r.Declare(Declaration{
		Name:   "nohandler",
		Params: trigger.Params{Period: time.Second},
	})
	if err == nil {
		t.Fatal("nil handler accepted")
	}
}

func TestDeclareRejectsConflictingTriggers(t *testing.T) {
	t.Parallel()
	r := New(Config{}, logx.Nop(), nil)
	t.Cleanup(r.Destroy)

	err := r.Declare(Declaration{
		Name:    "conflict",
		Handler: func() {},
		Params: trigger.Params{
			Expression: "0 * * * * *",
			FixedRate:  time.Second,
		},
	})
	if err == nil {
		t.Fatal("conflicting trigger parameters accepted")
	}
	if !strings.Contains(err.Error(), "conflicting") {
		t.Fatalf("error %q does not mention the conflict", err)
	}

	// No trigger at all is rejected by the builder with the four choices.
	err = r.Declare(Declaration{Name: "none", Handler: func() {}})
	if err == nil {
		t.Fatal("declaration without a trigger accepted")
	}
}

func TestDeclareAppliesDefaultZoneAndGeneratedName(t *testing.T) {
	t.Parallel()
	r := New(Config{Timezone: "UTC", NamePrefix: "billing"}, logx.Nop(), nil)
	t.Cleanup(r.Destroy)

	err := r.Declare(Declaration{
		Scope:     "billing.Reporter",
		Operation: "Flush",
		Handler:   func() {},
		Params:    trigger.Params{Expression: "0 0 * * * *"},
	})
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}
	if err := r.Ready(); err != nil {
		t.Fatalf("Ready: %v", err)
	}

	tasks := r.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(tasks))
	}
	task := tasks[0]
	if task.Name() != "billing-flush" {
		t.Fatalf("generated name = %q, want billing-flush", task.Name())
	}
	if task.Location().String() != "UTC" {
		t.Fatalf("zone = %s, want UTC", task.Location())
	}
}
