package registrar

import "testing"

func TestTaskName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		prefix    string
		kind      string
		scope     string
		operation string
		want      string
	}{
		{
			name:      "prefix wins",
			prefix:    "Billing",
			kind:      KindCron,
			scope:     "billing.Reporter",
			operation: "Flush",
			want:      "billing-flush",
		},
		{
			name:      "generated form",
			kind:      KindCron,
			scope:     "billing.Reporter",
			operation: "Flush",
			want:      "cron-billing.reporter-reporter-flush",
		},
		{
			name:      "scope without dots",
			kind:      KindPeriodic,
			scope:     "Reporter",
			operation: "Sync",
			want:      "periodic-reporter-reporter-sync",
		},
		{
			name:      "empty kind defaults to scheduled",
			scope:     "app.Worker",
			operation: "Tick",
			want:      "scheduled-app.worker-worker-tick",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := TaskName(tt.prefix, tt.kind, tt.scope, tt.operation)
			if got != tt.want {
				t.Fatalf("TaskName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()
	if got := kindOf([]string{"cron"}); got != KindCron {
		t.Fatalf("kindOf(cron) = %q", got)
	}
	if got := kindOf([]string{"periodic"}); got != KindPeriodic {
		t.Fatalf("kindOf(periodic) = %q", got)
	}
	if got := kindOf([]string{"fixed-rate"}); got != KindScheduled {
		t.Fatalf("kindOf(fixed-rate) = %q", got)
	}
	if got := kindOf(nil); got != KindScheduled {
		t.Fatalf("kindOf(nil) = %q", got)
	}
}
