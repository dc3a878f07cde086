package client

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/rs/zerolog"
)

// Task is a unit of work run by the WorkerPool
type Task interface {
	Execute(ctx context.Context) error
	GetID() string
}

// Executor accepts tasks without blocking the caller
type Executor interface {
	Submit(task Task) error
}

// WorkerPool runs handler invocations off the session's read loop.
//
// Submit never blocks: when the queue is full the task runs on an overflow
// goroutine instead. Stop does not wait for running tasks, so a handler may
// stop the client that invoked it.
type WorkerPool struct {
	maxWorkers int
	taskQueue  chan Task
	logger     zerolog.Logger
	mu         sync.RWMutex
	running    bool
	ctx        context.Context
	cancel     context.CancelFunc
	stats      poolCounters
}

type poolCounters struct {
	completed  atomic.Int64
	failed     atomic.Int64
	overflowed atomic.Int64
	dropped    atomic.Int64
	active     atomic.Int32
}

// PoolStats is a snapshot of worker pool counters
type PoolStats struct {
	TotalWorkers    int   `json:"total_workers"`
	ActiveWorkers   int   `json:"active_workers"`
	TasksQueued     int   `json:"tasks_queued"`
	TasksCompleted  int64 `json:"tasks_completed"`
	TasksFailed     int64 `json:"tasks_failed"`
	TasksOverflowed int64 `json:"tasks_overflowed"`
	TasksDropped    int64 `json:"tasks_dropped"`
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(maxWorkers, queueSize int, logger zerolog.Logger) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueSize < 1 {
		queueSize = maxWorkers * 2
	}

	return &WorkerPool{
		maxWorkers: maxWorkers,
		taskQueue:  make(chan Task, queueSize),
		logger:     logger,
	}
}

// Start starts the worker pool. A stopped pool cannot be restarted.
func (wp *WorkerPool) Start() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running || wp.ctx != nil {
		return errors.New(WorkerPoolAlreadyRunning, "worker pool is already running")
	}

	wp.ctx, wp.cancel = context.WithCancel(context.Background())
	for i := 0; i < wp.maxWorkers; i++ {
		go wp.work(i)
	}

	wp.running = true
	wp.logger.Debug().
		Int("max_workers", wp.maxWorkers).
		Int("queue_size", cap(wp.taskQueue)).
		Msg("Worker pool started")

	return nil
}

// Stop stops the worker pool. Queued tasks that have not started are dropped.
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.running {
		return errors.New(WorkerPoolNotRunning, "worker pool is not running")
	}

	wp.cancel()
	close(wp.taskQueue)

	wp.running = false
	wp.logger.Debug().Msg("Worker pool stopped")
	return nil
}

// Submit submits a task to the worker pool
func (wp *WorkerPool) Submit(task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.running {
		return errors.New(WorkerPoolNotRunning, "worker pool is not running")
	}

	select {
	case wp.taskQueue <- task:
	default:
		wp.stats.overflowed.Add(1)
		wp.logger.Debug().
			Str("task_id", task.GetID()).
			Msg("Task queue full, running on overflow goroutine")
		go wp.process(-1, task)
	}
	return nil
}

// IsRunning reports whether the pool accepts tasks
func (wp *WorkerPool) IsRunning() bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.running
}

// GetStats returns worker pool statistics
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		TotalWorkers:    wp.maxWorkers,
		ActiveWorkers:   int(wp.stats.active.Load()),
		TasksQueued:     len(wp.taskQueue),
		TasksCompleted:  wp.stats.completed.Load(),
		TasksFailed:     wp.stats.failed.Load(),
		TasksOverflowed: wp.stats.overflowed.Load(),
		TasksDropped:    wp.stats.dropped.Load(),
	}
}

func (wp *WorkerPool) work(id int) {
	for task := range wp.taskQueue {
		wp.process(id, task)
	}
}

func (wp *WorkerPool) process(workerID int, task Task) {
	if wp.ctx.Err() != nil {
		wp.stats.dropped.Add(1)
		return
	}

	wp.stats.active.Add(1)
	defer wp.stats.active.Add(-1)

	if err := task.Execute(wp.ctx); err != nil {
		wp.stats.failed.Add(1)
		wp.logger.Error().
			Err(err).
			Int("worker_id", workerID).
			Str("task_id", task.GetID()).
			Msg("Task execution failed")
		return
	}
	wp.stats.completed.Add(1)
}
