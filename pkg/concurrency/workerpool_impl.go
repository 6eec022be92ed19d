package concurrency

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// PoolConfig configures a WorkerPool.
type PoolConfig struct {
	Workers   int // number of worker goroutines
	QueueSize int // task queue capacity
}

// DefaultPoolConfig returns the default pool sizing.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{Workers: 8, QueueSize: 1024}
}

type workerPool struct {
	workers int
	tasks   Mailbox[Task]
	wg      sync.WaitGroup
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	logger  simpleLogger

	gidMu sync.RWMutex
	gids  map[int64]struct{}
}

// NewWorkerPool creates a pool; call Start before submitting.
func NewWorkerPool(ctx context.Context, cfg PoolConfig) WorkerPool {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 100
	}
	ctx, cancel := context.WithCancel(ctx)
	return &workerPool{
		workers: cfg.Workers,
		tasks:   NewBoundedMailbox[Task](cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		logger:  newDefaultSimpleLogger(),
		gids:    make(map[int64]struct{}),
	}
}

func (wp *workerPool) Start() error {
	if !wp.running.CompareAndSwap(false, true) {
		return fmt.Errorf("worker pool is already running")
	}
	wp.wg.Add(wp.workers)
	for i := 0; i < wp.workers; i++ {
		go wp.worker(i)
	}
	return nil
}

func (wp *workerPool) worker(id int) {
	defer wp.wg.Done()

	gid := GID()
	wp.gidMu.Lock()
	wp.gids[gid] = struct{}{}
	wp.gidMu.Unlock()
	defer func() {
		wp.gidMu.Lock()
		delete(wp.gids, gid)
		wp.gidMu.Unlock()
	}()

	for {
		task, err := wp.tasks.Receive(wp.ctx)
		if err != nil {
			return
		}
		if err := wp.execute(task); err != nil {
			wp.logger.Errorf("worker %d: task %s failed: %v", id, task.Name(), err)
		}
	}
}

// execute runs one task with panic isolation so a faulting task never
// takes the worker down.
func (wp *workerPool) execute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Name(), r)
		}
	}()
	return task.Execute(wp.ctx)
}

func (wp *workerPool) Stop(ctx context.Context) error {
	if !wp.running.CompareAndSwap(true, false) {
		return nil
	}
	wp.cancel()
	wp.tasks.Close()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool stop timeout: %w", ctx.Err())
	}
}

func (wp *workerPool) Submit(task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if !wp.running.Load() {
		return fmt.Errorf("worker pool is not running")
	}
	return wp.tasks.Send(task)
}

func (wp *workerPool) Workers() int { return wp.workers }

func (wp *workerPool) IsRunning() bool { return wp.running.Load() }

func (wp *workerPool) IsWorker() bool {
	gid := GID()
	wp.gidMu.RLock()
	_, ok := wp.gids[gid]
	wp.gidMu.RUnlock()
	return ok
}

func (wp *workerPool) QueueDepth() int { return wp.tasks.Size() }
