package events

import (
	"time"
)

// Topic constants
const (
	TopicTask  = "task"
	TopicBuild = "build"
)

// Event is the base interface for all pipeline events.
type Event interface {
	EventType() string
}

// Event type constants
const (
	EventTypeTaskStarted   = "task.started"
	EventTypeTaskCompleted = "task.completed"
	EventTypeTaskFailed    = "task.failed"
	EventTypeBuildFinished = "build.finished"
)

// TaskStarted is published when a leaf task begins execution.
type TaskStarted struct {
	Name string
	At   time.Time
}

func (e TaskStarted) EventType() string { return EventTypeTaskStarted }

// TaskCompleted is published when a leaf task completes successfully.
type TaskCompleted struct {
	Name     string
	Duration time.Duration
	At       time.Time
}

func (e TaskCompleted) EventType() string { return EventTypeTaskCompleted }

// TaskFailed is published when a leaf task fails.
type TaskFailed struct {
	Name     string
	Err      error
	Duration time.Duration
	At       time.Time
}

func (e TaskFailed) EventType() string { return EventTypeTaskFailed }

// BuildFinished is published when a whole plan execution settles.
// Consumers such as the dev server use it to push live-reload notifications.
type BuildFinished struct {
	Root     string // root task of the plan
	Failed   bool
	Duration time.Duration
	At       time.Time
}

func (e BuildFinished) EventType() string { return EventTypeBuildFinished }
