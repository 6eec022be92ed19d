package concurrency

import (
	"context"
)

// WorkerPool runs tasks on a fixed set of background goroutines.
type WorkerPool interface {
	// Start launches the worker goroutines.
	Start() error

	// Stop shuts the pool down, waiting for in-flight tasks up to
	// ctx's deadline.
	Stop(ctx context.Context) error

	// Submit enqueues a task. Returns ErrMailboxFull when the queue
	// is at capacity; it never blocks.
	Submit(task Task) error

	// Workers returns the number of worker goroutines.
	Workers() int

	// IsRunning reports whether the pool is started and not stopped.
	IsRunning() bool

	// IsWorker reports whether the calling goroutine is one of the
	// pool's workers.
	IsWorker() bool

	// QueueDepth returns the number of queued, unstarted tasks.
	QueueDepth() int
}
