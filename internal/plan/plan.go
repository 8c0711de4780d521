// Package plan resolves registered tasks into execution plans and runs them.
//
// A plan is a fresh tree computed per invocation: group nodes annotated
// sequence or parallel, leaf nodes carrying the action to run. Plans are never
// cached across runs since the file inputs they read change between runs.
package plan

import (
	"fmt"
	"strings"

	"github.com/avendel/stagehand/internal/registry"
)

// Node is one step of a resolved execution plan.
type Node struct {
	Kind     registry.Kind
	Task     string
	Action   registry.Action // leaf nodes only
	Children []*Node         // group nodes only, in declaration order
}

// Resolve expands root into an execution plan. Group members are expanded
// recursively in declaration order. A name appearing in its own ancestor
// chain fails with CyclicDependencyError; an unregistered name fails with
// UnknownTaskError.
func Resolve(reg *registry.Registry, root string) (*Node, error) {
	return resolve(reg, root, nil)
}

func resolve(reg *registry.Registry, name string, ancestors []string) (*Node, error) {
	for i, a := range ancestors {
		if a == name {
			chain := append(append([]string(nil), ancestors[i:]...), name)
			return nil, &registry.CyclicDependencyError{Chain: chain}
		}
	}

	def, err := reg.Lookup(name)
	if err != nil {
		return nil, err
	}

	node := &Node{Kind: def.Kind, Task: name, Action: def.Action}
	if def.Kind == registry.KindLeaf {
		return node, nil
	}

	chain := append(append([]string(nil), ancestors...), name)
	for _, member := range def.Members {
		child, err := resolve(reg, member, chain)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// Leaves returns the names of all leaf tasks in the plan, in traversal order.
func (n *Node) Leaves() []string {
	if n.Kind == registry.KindLeaf {
		return []string{n.Task}
	}
	var leaves []string
	for _, child := range n.Children {
		leaves = append(leaves, child.Leaves()...)
	}
	return leaves
}

// Render returns a human-readable tree of the plan.
func (n *Node) Render() string {
	var b strings.Builder
	n.render(&b, 0)
	return b.String()
}

func (n *Node) render(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if n.Kind == registry.KindLeaf {
		fmt.Fprintf(b, "%s\n", n.Task)
	} else {
		fmt.Fprintf(b, "%s (%s)\n", n.Task, n.Kind)
	}
	for _, child := range n.Children {
		child.render(b, depth+1)
	}
}
