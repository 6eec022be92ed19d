package concurrency

import (
	"context"
)

// Task is a unit of work executed by a WorkerPool.
type Task interface {
	// Execute performs the work. ctx carries pool cancellation.
	Execute(ctx context.Context) error

	// Name identifies the task in logs.
	Name() string
}

// TaskFunc adapts a plain function to Task.
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Execute(ctx context.Context) error { return f(ctx) }

func (f TaskFunc) Name() string { return "TaskFunc" }

// NamedTask wraps a TaskFunc with a name for logging.
type NamedTask struct {
	name string
	task TaskFunc
}

// NewNamedTask creates a NamedTask.
func NewNamedTask(name string, task TaskFunc) *NamedTask {
	return &NamedTask{name: name, task: task}
}

func (nt *NamedTask) Execute(ctx context.Context) error { return nt.task(ctx) }

func (nt *NamedTask) Name() string { return nt.name }
