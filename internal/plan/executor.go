package plan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/avendel/stagehand/internal/events"
	"github.com/avendel/stagehand/internal/registry"
)

// TaskError tags a leaf failure with the task that produced it.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Executor walks an execution plan. Sequence nodes run children one at a
// time and stop at the first failure; parallel nodes start all children,
// let every one of them settle, and aggregate whatever failed. The executor
// never retries a leaf.
type Executor struct {
	Limit int // max concurrently running children per parallel node; <= 0 means unlimited
	Bus   *events.Bus
	Log   zerolog.Logger
}

// Execute runs the plan rooted at node. The returned error is a TaskError
// for a single leaf failure, or a joined error when several parallel
// children failed.
func (e *Executor) Execute(ctx context.Context, node *Node) error {
	switch node.Kind {
	case registry.KindLeaf:
		return e.runLeaf(ctx, node)

	case registry.KindSequence:
		for _, child := range node.Children {
			if err := e.Execute(ctx, child); err != nil {
				return err
			}
		}
		return nil

	case registry.KindParallel:
		g := new(errgroup.Group)
		if e.Limit > 0 {
			g.SetLimit(e.Limit)
		}

		var mu sync.Mutex
		var failures []error
		for _, child := range node.Children {
			c := child
			g.Go(func() error {
				// Failures are collected, not returned: a failing child must
				// not cut short its in-flight siblings.
				if err := e.Execute(ctx, c); err != nil {
					mu.Lock()
					failures = append(failures, err)
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
		return errors.Join(failures...)
	}

	return fmt.Errorf("plan node %q has unknown kind %d", node.Task, node.Kind)
}

func (e *Executor) runLeaf(ctx context.Context, node *Node) error {
	start := time.Now()
	e.publish(events.TopicTask, events.TaskStarted{Name: node.Task, At: start})
	e.Log.Debug().Str("task", node.Task).Msg("task started")

	err := node.Action(ctx)
	elapsed := time.Since(start)

	if err != nil {
		e.publish(events.TopicTask, events.TaskFailed{Name: node.Task, Err: err, Duration: elapsed, At: time.Now()})
		e.Log.Error().Str("task", node.Task).Dur("elapsed", elapsed).Err(err).Msg("task failed")
		return &TaskError{Task: node.Task, Err: err}
	}

	e.publish(events.TopicTask, events.TaskCompleted{Name: node.Task, Duration: elapsed, At: time.Now()})
	e.Log.Info().Str("task", node.Task).Dur("elapsed", elapsed).Msg("task finished")
	return nil
}

func (e *Executor) publish(topic string, ev events.Event) {
	if e.Bus != nil {
		e.Bus.Publish(topic, ev)
	}
}
