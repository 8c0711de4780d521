// Package watch maps filesystem change events to task re-executions.
//
// Each binding associates a glob pattern with one task and runs through a
// small state machine: idle -> triggered -> running -> idle. A quiet window
// after the first qualifying event coalesces event bursts into a single run,
// and a capacity-1 trigger channel guarantees at most one in-flight execution
// per binding, with at most one follow-up run queued behind it. Independent
// bindings run independently and may overlap each other.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// RunFunc executes the named task's plan. Called by the coordinator with at
// most one in-flight call per binding.
type RunFunc func(ctx context.Context, task string) error

type binding struct {
	pattern string
	task    string
	// trigger coalesces change events. Capacity 1: an event arriving while a
	// run is in flight queues exactly one follow-up run; further events fold
	// into that same pending trigger.
	trigger chan struct{}
}

// Coordinator watches a directory tree and re-runs bound tasks on change.
type Coordinator struct {
	root     string
	debounce time.Duration
	run      RunFunc
	log      zerolog.Logger
	skip     map[string]bool // directory names excluded from watching
	bindings []*binding
	watcher  *fsnotify.Watcher
}

// New creates a Coordinator watching the tree under root. skipDirs names
// directories (by base name) excluded from the recursive watch, typically
// the output directory and node_modules.
func New(root string, debounce time.Duration, run RunFunc, log zerolog.Logger, skipDirs ...string) *Coordinator {
	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = true
	}
	return &Coordinator{
		root:     root,
		debounce: debounce,
		run:      run,
		log:      log,
		skip:     skip,
	}
}

// Bind associates a doublestar glob pattern (relative to root) with a task.
// Bindings are immutable and live for the coordinator's lifetime; Bind must
// not be called after Start.
func (c *Coordinator) Bind(pattern, task string) {
	c.bindings = append(c.bindings, &binding{
		pattern: pattern,
		task:    task,
		trigger: make(chan struct{}, 1),
	})
}

// Start begins watching and dispatching. It returns once the watcher and all
// binding loops are running; they stop when ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	c.watcher = w

	if err := c.addTree(c.root); err != nil {
		w.Close()
		return err
	}

	go c.eventLoop(ctx)
	c.startBindings(ctx)
	return nil
}

func (c *Coordinator) startBindings(ctx context.Context) {
	for _, b := range c.bindings {
		go c.bindingLoop(ctx, b)
	}
}

// addTree adds dir and its subdirectories to the watcher, honoring skips.
func (c *Coordinator) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && c.skip[d.Name()] {
			return filepath.SkipDir
		}
		if err := c.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// eventLoop consumes fsnotify events and dispatches them to bindings.
func (c *Coordinator) eventLoop(ctx context.Context) {
	defer c.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// Newly created directories join the watch so nested changes
			// keep arriving.
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !c.skip[filepath.Base(ev.Name)] {
					if err := c.watcher.Add(ev.Name); err != nil {
						c.log.Warn().Str("dir", ev.Name).Err(err).Msg("failed to watch new directory")
					}
				}
			}
			c.dispatch(ev.Name)

		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// dispatch triggers every binding whose pattern matches path. Non-blocking:
// a binding already triggered or running coalesces the event.
func (c *Coordinator) dispatch(path string) {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for _, b := range c.bindings {
		ok, err := doublestar.Match(b.pattern, rel)
		if err != nil {
			c.log.Warn().Str("pattern", b.pattern).Err(err).Msg("invalid watch pattern")
			continue
		}
		if !ok {
			continue
		}
		select {
		case b.trigger <- struct{}{}:
		default:
		}
	}
}

// bindingLoop is the per-binding state machine.
func (c *Coordinator) bindingLoop(ctx context.Context, b *binding) {
	for {
		// idle: wait for the first qualifying event.
		select {
		case <-ctx.Done():
			return
		case <-b.trigger:
		}

		// triggered: debounce. Each further event restarts the quiet window.
		timer := time.NewTimer(c.debounce)
	debounce:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-b.trigger:
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(c.debounce)
			case <-timer.C:
				break debounce
			}
		}

		// running: events arriving now land in the trigger channel and start
		// the next cycle once this run settles.
		c.log.Info().Str("task", b.task).Str("pattern", b.pattern).Msg("change detected, running task")
		if err := c.run(ctx, b.task); err != nil {
			c.log.Error().Str("task", b.task).Err(err).Msg("watch-triggered run failed")
		}
	}
}
