package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/avendel/stagehand/internal/config"
	"github.com/avendel/stagehand/internal/events"
	"github.com/avendel/stagehand/internal/pipeline"
	"github.com/avendel/stagehand/internal/plan"
	"github.com/avendel/stagehand/internal/registry"
	"github.com/avendel/stagehand/internal/tasks"
	"github.com/avendel/stagehand/internal/tool"
)

// app bundles the wired-up pipeline for one CLI invocation.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	bus   *events.Bus
	reg   *registry.Registry
	exec  *plan.Executor
	procs *tool.ProcessManager
}

func newApp(cmd *cobra.Command) (*app, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	configPath, _ := cmd.Flags().GetString("config")

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	procs := tool.NewProcessManager()
	runner := tool.NewRunner(".", procs, log)
	set := tasks.New(cfg, runner, log)

	reg := registry.New()
	if err := pipeline.Register(reg, set); err != nil {
		return nil, err
	}

	bus := events.NewBus()

	return &app{
		cfg:   cfg,
		log:   log,
		bus:   bus,
		reg:   reg,
		exec:  &plan.Executor{Bus: bus, Log: log},
		procs: procs,
	}, nil
}

func (a *app) close() {
	a.bus.Close()
	if err := a.procs.KillAll(); err != nil {
		a.log.Warn().Err(err).Msg("failed to terminate tool subprocesses")
	}
}

// runTask resolves a fresh plan for name and executes it, announcing the
// outcome on the build topic.
func (a *app) runTask(ctx context.Context, name string) error {
	start := time.Now()

	node, err := plan.Resolve(a.reg, name)
	if err != nil {
		return err
	}

	err = a.exec.Execute(ctx, node)
	a.bus.Publish(events.TopicBuild, events.BuildFinished{
		Root:     name,
		Failed:   err != nil,
		Duration: time.Since(start),
		At:       time.Now(),
	})
	if err == nil {
		a.log.Info().Str("task", name).Dur("elapsed", time.Since(start)).Msg("run finished")
	}
	return err
}
