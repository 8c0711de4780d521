// Package pipeline wires the leaf actions into the task graph the CLI
// exposes.
package pipeline

import (
	"github.com/avendel/stagehand/internal/registry"
	"github.com/avendel/stagehand/internal/tasks"
)

// Task names reachable from the command line.
const (
	TaskBuild = "build"
	TaskLint  = "lint"
	TaskTest  = "test"
)

// Register populates reg with the full task graph and validates it.
func Register(reg *registry.Registry, set *tasks.Set) error {
	regs := []func() error{
		func() error { return reg.Leaf("bundle", set.Bundle) },
		func() error { return reg.Leaf("html", set.Html) },
		func() error { return reg.Leaf("assets", set.Assets) },
		func() error { return reg.Leaf("styles", set.Styles) },
		func() error { return reg.Leaf("fonts", set.Fonts) },
		func() error { return reg.Leaf("runtime-config", set.RuntimeConfig) },
		func() error { return reg.Parallel("compile", "bundle", "html", "assets", "styles", "fonts") },
		func() error { return reg.Sequence(TaskBuild, "compile", "runtime-config") },
		func() error { return reg.Leaf(TaskLint, set.Lint) },
		func() error { return reg.Leaf(TaskTest, set.Test) },
	}
	for _, register := range regs {
		if err := register(); err != nil {
			return err
		}
	}
	return reg.Validate()
}
