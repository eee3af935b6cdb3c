// Command schedulerd runs the scheduling runtime standalone: it loads the
// configuration, registers the declarative task table against the built-in
// demo handlers, and keeps running until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jetleaf/jetleaf-scheduling/config"
	"github.com/jetleaf/jetleaf-scheduling/pkg/eventbus"
	"github.com/jetleaf/jetleaf-scheduling/pkg/logx"
	"github.com/jetleaf/jetleaf-scheduling/registrar"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to config yaml/json (empty: defaults)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		mgr *config.Manager
		cfg *config.Config
		err error
	)
	if cfgPath != "" {
		mgr = config.NewManager(cfgPath, logx.NewConsole("info"))
		cfg, err = mgr.Load()
	} else {
		cfg, err = config.Load("")
	}
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	logSvc, log := logx.New(logxConfig(cfg))
	defer logSvc.Close()

	bus := eventbus.New()
	reg := registrar.New(registrar.Config{
		MaxConcurrency: cfg.Scheduler.MaxConcurrency,
		QueueCapacity:  cfg.Scheduler.QueueCapacity,
		Timezone:       cfg.Scheduler.Timezone,
		NamePrefix:     cfg.Scheduler.NamePrefix,
	}, log, bus)

	handlers := builtinHandlers(log, reg)
	for _, tc := range cfg.Tasks {
		h, ok := handlers[tc.Handler]
		if !ok {
			fmt.Printf("fatal: task %q references unknown handler %q\n", tc.Name, tc.Handler)
			os.Exit(1)
		}
		params, err := tc.TriggerParams()
		if err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		if err := reg.Declare(registrar.Declaration{Name: tc.Name, Handler: h, Params: params}); err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
	}
	if !reg.HasTasks() {
		// An empty config still shows signs of life.
		_ = reg.RegisterFixedRate("heartbeat", time.Minute, 0, handlers["heartbeat"].(registrar.Runnable))
	}

	if err := reg.Ready(); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}
	log.Info("schedulerd started", logx.Int("tasks", len(reg.Tasks())))

	// Trace task lifecycle events.
	events, unsub := bus.Subscribe(128)
	defer unsub()
	go func() {
		for ev := range events {
			log.Trace("task event", logx.String("type", ev.Type), logx.Any("data", ev.Data))
		}
	}()

	// Hot-reload: logging follows the file; scheduler settings and tasks from
	// a reloaded file are not applied to the running registrar.
	if mgr != nil {
		go func() { _ = mgr.Watch(ctx) }()
		sub := mgr.Subscribe(1)
		defer mgr.Unsubscribe(sub)
		go func() {
			for updated := range sub {
				logSvc.Apply(logxConfig(updated))
				log.Info("logging config re-applied")
			}
		}()
	}

	<-ctx.Done()
	reg.Destroy()
	log.Info("schedulerd stopped")
}

func logxConfig(cfg *config.Config) logx.Config {
	console := true
	if cfg.Logging.Console != nil {
		console = *cfg.Logging.Console
	}
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

// builtinHandlers are the demo task bodies the config table can reference.
func builtinHandlers(log logx.Logger, reg *registrar.Registrar) map[string]any {
	return map[string]any{
		"heartbeat": registrar.RunnableFunc(func(context.Context) error {
			log.Info("heartbeat")
			return nil
		}),
		"stats": registrar.RunnableFunc(func(context.Context) error {
			sched := reg.Scheduler()
			if sched == nil {
				return nil
			}
			snap := sched.Snapshot()
			log.Info("scheduler stats",
				logx.Int("active", snap.Active),
				logx.Int("queued", snap.Queued),
				logx.Int("tasks", snap.Total),
			)
			return nil
		}),
	}
}
