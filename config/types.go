// Package config loads the scheduler's environment-sourced configuration
// from a YAML or JSON file, applies environment-variable overrides, and can
// watch the file for changes.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jetleaf/jetleaf-scheduling/trigger"
)

// Config is the root configuration document.
type Config struct {
	Scheduler SchedulerConfig `json:"scheduler"`
	Logging   LoggingConfig   `json:"logging,omitempty"`

	// Tasks is the declarative task table consumed by the registrar façade.
	// The core scheduling packages do not depend on it.
	Tasks []TaskConfig `json:"tasks,omitempty"`
}

// SchedulerConfig carries the scheduler properties.
//
// Keys mirror the property names: scheduler.max-concurrency,
// scheduler.queue-capacity, scheduler.timezone, scheduler.name-prefix.
type SchedulerConfig struct {
	MaxConcurrency int    `json:"max-concurrency,omitempty"`
	QueueCapacity  int    `json:"queue-capacity,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
	NamePrefix     string `json:"name-prefix,omitempty"`
}

// LoggingConfig selects sinks and level for pkg/logx.
type LoggingConfig struct {
	Level   string `json:"level,omitempty"`
	Console *bool  `json:"console,omitempty"`
	File    struct {
		Enabled bool   `json:"enabled,omitempty"`
		Path    string `json:"path,omitempty"`
	} `json:"file,omitempty"`
}

// TaskConfig declares one scheduled task. Durations are Go duration strings
// (e.g. "500ms", "10s", "1m"). Exactly one of Cron, FixedRate, FixedDelay,
// Period must be set.
type TaskConfig struct {
	Name         string `json:"name"`
	Handler      string `json:"handler"`
	Cron         string `json:"cron,omitempty"`
	FixedRate    string `json:"fixed-rate,omitempty"`
	FixedDelay   string `json:"fixed-delay,omitempty"`
	Period       string `json:"period,omitempty"`
	InitialDelay string `json:"initial-delay,omitempty"`
	Zone         string `json:"zone,omitempty"`
}

// TriggerParams maps the declaration onto a trigger parameter bundle.
func (t TaskConfig) TriggerParams() (trigger.Params, error) {
	p := trigger.Params{Expression: strings.TrimSpace(t.Cron), Zone: strings.TrimSpace(t.Zone)}

	var err error
	if p.FixedRate, err = parseDurationField(t.Name+".fixed-rate", t.FixedRate); err != nil {
		return trigger.Params{}, err
	}
	if p.FixedDelay, err = parseDurationField(t.Name+".fixed-delay", t.FixedDelay); err != nil {
		return trigger.Params{}, err
	}
	if p.Period, err = parseDurationField(t.Name+".period", t.Period); err != nil {
		return trigger.Params{}, err
	}
	if p.InitialDelay, err = parseDurationField(t.Name+".initial-delay", t.InitialDelay); err != nil {
		return trigger.Params{}, err
	}
	return p, nil
}

func parseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}
