package pipeline

import (
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/avendel/stagehand/internal/config"
	"github.com/avendel/stagehand/internal/plan"
	"github.com/avendel/stagehand/internal/registry"
	"github.com/avendel/stagehand/internal/tasks"
	"github.com/avendel/stagehand/internal/tool"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	cfg := config.Default()
	set := tasks.New(cfg, tool.NewRunner(".", nil, zerolog.Nop()), zerolog.Nop())

	reg := registry.New()
	if err := Register(reg, set); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return reg
}

func TestRegisterValidGraph(t *testing.T) {
	reg := newRegistry(t)

	for _, name := range []string{TaskBuild, TaskLint, TaskTest} {
		if _, err := reg.Lookup(name); err != nil {
			t.Errorf("expected task %q registered: %v", name, err)
		}
	}
}

func TestBuildPlanLeafClosure(t *testing.T) {
	reg := newRegistry(t)

	node, err := plan.Resolve(reg, TaskBuild)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	leaves := node.Leaves()
	sort.Strings(leaves)
	want := []string{"assets", "bundle", "fonts", "html", "runtime-config", "styles"}
	if len(leaves) != len(want) {
		t.Fatalf("expected %d leaves, got %v", len(want), leaves)
	}
	for i, name := range want {
		if leaves[i] != name {
			t.Errorf("leaves[%d] = %q, want %q", i, leaves[i], name)
		}
	}

	// runtime-config must be sequenced after the parallel compile group.
	if node.Kind != registry.KindSequence {
		t.Fatalf("expected build to be a sequence, got %v", node.Kind)
	}
	last := node.Children[len(node.Children)-1]
	if last.Task != "runtime-config" {
		t.Errorf("expected runtime-config last in the build sequence, got %q", last.Task)
	}
}

func TestPlansAreFreshPerInvocation(t *testing.T) {
	reg := newRegistry(t)

	first, err := plan.Resolve(reg, TaskBuild)
	if err != nil {
		t.Fatal(err)
	}
	second, err := plan.Resolve(reg, TaskBuild)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("expected a fresh plan per invocation")
	}
}
