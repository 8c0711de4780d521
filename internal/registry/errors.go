package registry

import (
	"fmt"
	"strings"
)

// DuplicateTaskError is returned when a task name is registered twice.
type DuplicateTaskError struct {
	Name string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %q is already registered", e.Name)
}

// UnknownTaskError is returned when a referenced task name is not registered.
type UnknownTaskError struct {
	Name string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown task %q", e.Name)
}

// CyclicDependencyError is returned when a task includes itself, directly or
// transitively, as a group member. Chain holds the offending inclusion path
// when it is known.
type CyclicDependencyError struct {
	Chain []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Chain) == 0 {
		return "cyclic task dependency"
	}
	return fmt.Sprintf("cyclic task dependency: %s", strings.Join(e.Chain, " -> "))
}
