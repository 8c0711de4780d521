// Package registry stores the named build tasks of the pipeline.
//
// A task is either a leaf (one action performing real I/O or invoking an
// external tool) or a group composing other tasks in sequence or in parallel.
// Definitions are immutable once registered; the registry is populated during
// a non-concurrent setup phase and only read afterwards.
package registry

import (
	"context"
	"sync"

	"github.com/gammazero/toposort"
)

// Kind discriminates task definitions.
type Kind int

const (
	KindLeaf Kind = iota
	KindSequence
	KindParallel
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindSequence:
		return "sequence"
	case KindParallel:
		return "parallel"
	}
	return "unknown"
}

// Action is the unit of work a leaf task performs. Actions must be idempotent
// with respect to the artifacts they produce: a rerun overwrites, never merges.
type Action func(ctx context.Context) error

// Definition describes one registered task.
type Definition struct {
	Name    string
	Kind    Kind
	Action  Action   // leaf tasks only
	Members []string // group tasks only, in declaration order
}

// Registry indexes task definitions by name.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Definition
	order []string // registration order, for listings
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		tasks: make(map[string]Definition),
	}
}

// Leaf registers a leaf task. Returns DuplicateTaskError if name is taken.
func (r *Registry) Leaf(name string, action Action) error {
	return r.register(Definition{Name: name, Kind: KindLeaf, Action: action})
}

// Sequence registers a group whose members run one at a time, in order.
func (r *Registry) Sequence(name string, members ...string) error {
	return r.register(Definition{Name: name, Kind: KindSequence, Members: members})
}

// Parallel registers a group whose members run concurrently.
func (r *Registry) Parallel(name string, members ...string) error {
	return r.register(Definition{Name: name, Kind: KindParallel, Members: members})
}

func (r *Registry) register(def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[def.Name]; exists {
		return &DuplicateTaskError{Name: def.Name}
	}

	r.tasks[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Lookup returns the definition for name, or UnknownTaskError.
func (r *Registry) Lookup(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.tasks[name]
	if !exists {
		return Definition{}, &UnknownTaskError{Name: name}
	}
	return def, nil
}

// Names returns all registered task names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Validate checks the whole graph at setup time: every group member must be
// registered, and the membership relation must be acyclic. Resolution repeats
// these checks per invocation; validating here surfaces wiring mistakes before
// any task runs.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var edges []toposort.Edge
	for name, def := range r.tasks {
		if len(def.Members) == 0 {
			// Edge from nil keeps member-less tasks in the sort.
			edges = append(edges, toposort.Edge{nil, name})
			continue
		}
		for _, member := range def.Members {
			if _, exists := r.tasks[member]; !exists {
				return &UnknownTaskError{Name: member}
			}
			// Member must be resolvable before the group that includes it.
			edges = append(edges, toposort.Edge{member, name})
		}
	}

	if _, err := toposort.Toposort(edges); err != nil {
		return &CyclicDependencyError{}
	}
	return nil
}
