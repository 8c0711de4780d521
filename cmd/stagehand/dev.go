package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avendel/stagehand/internal/devserver"
	"github.com/avendel/stagehand/internal/events"
	"github.com/avendel/stagehand/internal/pipeline"
	"github.com/avendel/stagehand/internal/watch"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Build, watch, and serve with live reload",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		// Initial full build. A failure is logged, not fatal: the watch loop
		// exists so the next save fixes it.
		if err := a.runTask(ctx, pipeline.TaskBuild); err != nil {
			a.log.Error().Err(err).Msg("initial build failed")
		}

		srv := devserver.New(a.cfg.OutDir, devserver.Options{
			Port:        a.cfg.Server.Port,
			SPAFallback: a.cfg.Server.SPAFallback,
			LiveReload:  a.cfg.Server.LiveReload,
		}, a.log)

		if a.cfg.Server.LiveReload {
			buildCh := a.bus.Subscribe(events.TopicBuild, 8)
			go func() {
				for ev := range buildCh {
					if fin, ok := ev.(events.BuildFinished); ok && !fin.Failed {
						srv.Notify()
					}
				}
			}()
		}

		debounce := time.Duration(a.cfg.Watch.DebounceMs) * time.Millisecond
		coord := watch.New(".", debounce, a.watchRun, a.log,
			a.cfg.OutDir, "node_modules", ".git", ".stagehand")
		coord.Bind(filepath.ToSlash(a.cfg.SrcDir)+"/**", pipeline.TaskBuild)
		coord.Bind(filepath.ToSlash(a.cfg.Manifest), pipeline.TaskBuild)
		coord.Bind(filepath.ToSlash(a.cfg.SrcDir)+"/**", pipeline.TaskTest)
		if err := coord.Start(ctx); err != nil {
			return err
		}

		return srv.Start(ctx)
	},
}

// watchRun adapts runTask for the watch loop, applying the configured
// test-failure policy.
func (a *app) watchRun(ctx context.Context, name string) error {
	err := a.runTask(ctx, name)
	if err != nil && name == pipeline.TaskTest && !a.cfg.Watch.FailOnTestError {
		a.log.Warn().Err(err).Msg("test run failed, continuing per fail_on_test_error=false")
		return nil
	}
	return err
}

func init() {
	rootCmd.AddCommand(devCmd)
}
