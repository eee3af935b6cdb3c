package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables overriding the scheduler properties.
const (
	EnvMaxConcurrency = "SCHEDULER_MAX_CONCURRENCY"
	EnvQueueCapacity  = "SCHEDULER_QUEUE_CAPACITY"
	EnvTimezone       = "SCHEDULER_TIMEZONE"
	EnvNamePrefix     = "SCHEDULER_NAME_PREFIX"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			MaxConcurrency: 10,
			QueueCapacity:  1000,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Parse strictly decodes the file at path. Unknown keys are rejected for
// both YAML and JSON.
func Parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}
	return &cfg, nil
}

// Load reads path (empty means defaults only), layers it over the defaults,
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		parsed, err := Parse(path)
		if err != nil {
			return nil, err
		}
		merge(cfg, parsed)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge overlays set fields of src onto dst.
func merge(dst, src *Config) {
	if src.Scheduler.MaxConcurrency != 0 {
		dst.Scheduler.MaxConcurrency = src.Scheduler.MaxConcurrency
	}
	if src.Scheduler.QueueCapacity != 0 {
		dst.Scheduler.QueueCapacity = src.Scheduler.QueueCapacity
	}
	if src.Scheduler.Timezone != "" {
		dst.Scheduler.Timezone = src.Scheduler.Timezone
	}
	if src.Scheduler.NamePrefix != "" {
		dst.Scheduler.NamePrefix = src.Scheduler.NamePrefix
	}
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.Console != nil {
		dst.Logging.Console = src.Logging.Console
	}
	dst.Logging.File = src.Logging.File
	dst.Tasks = src.Tasks
}

// ApplyEnv overrides the scheduler properties from the environment.
func ApplyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvMaxConcurrency)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", EnvMaxConcurrency, v)
		}
		cfg.Scheduler.MaxConcurrency = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvQueueCapacity)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", EnvQueueCapacity, v)
		}
		cfg.Scheduler.QueueCapacity = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimezone)); v != "" {
		cfg.Scheduler.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvNamePrefix)); v != "" {
		cfg.Scheduler.NamePrefix = v
	}
	return nil
}

// Validate rejects configurations the scheduler could not honor.
func Validate(cfg *Config) error {
	if cfg.Scheduler.MaxConcurrency <= 0 {
		return fmt.Errorf("scheduler.max-concurrency must be a positive integer")
	}
	if cfg.Scheduler.QueueCapacity <= 0 {
		return fmt.Errorf("scheduler.queue-capacity must be a positive integer")
	}
	if tz := strings.TrimSpace(cfg.Scheduler.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("scheduler.timezone: unknown zone %q", tz)
		}
	}
	seen := make(map[string]struct{}, len(cfg.Tasks))
	for i, task := range cfg.Tasks {
		if strings.TrimSpace(task.Name) == "" {
			return fmt.Errorf("tasks[%d]: name required", i)
		}
		if _, dup := seen[task.Name]; dup {
			return fmt.Errorf("tasks[%d]: duplicate name %q", i, task.Name)
		}
		seen[task.Name] = struct{}{}
		if strings.TrimSpace(task.Handler) == "" {
			return fmt.Errorf("task %q: handler required", task.Name)
		}
		params, err := task.TriggerParams()
		if err != nil {
			return err
		}
		if kinds := params.Kinds(); len(kinds) != 1 {
			return fmt.Errorf("task %q: exactly one of cron, fixed-rate, fixed-delay, period required", task.Name)
		}
	}
	return nil
}
