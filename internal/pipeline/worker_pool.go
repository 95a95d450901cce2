package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog/log"

	"github.com/tarungka/sonata/internal/models"
)

// ErrPoolStopped is returned by Submit once Stop has been called.
var ErrPoolStopped = errors.New("worker pool stopped")

// Task is a unit of work for the pool, carrying the record of its run.
type Task interface {
	Record() *models.Run
	Run(ctx context.Context) error
}

// Result is the outcome of one task.
type Result struct {
	Run *models.Run
	Err error
}

// WorkerPool runs queued tasks on a fixed number of workers.
type WorkerPool struct {
	workers     int
	taskQueue   chan Task
	resultQueue chan Result

	// Metrics
	activeWorkers  int32
	processedTasks uint64
	failedTasks    uint64

	// Control
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new WorkerPool.
func NewWorkerPool(workers int, bufferSize int) *WorkerPool {
	if workers <= 0 {
		workers = 1 // Ensure at least one worker
	}
	if bufferSize <= 0 {
		bufferSize = workers * 10 // Default buffer size
	}
	return &WorkerPool{
		workers:     workers,
		taskQueue:   make(chan Task, bufferSize),
		resultQueue: make(chan Result, bufferSize),
	}
}

// Start initializes and starts the worker goroutines. Tasks run with ctx.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// worker is the main function for each worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	atomic.AddInt32(&wp.activeWorkers, 1)
	defer atomic.AddInt32(&wp.activeWorkers, -1)

	logger := log.With().Int("worker_id", id).Logger()
	logger.Debug().Msg("Worker started")

	for task := range wp.taskQueue {
		run := task.Record()
		runLogger := logger.With().
			Str("run_id", run.ID.String()).
			Str("pipeline", run.Pipeline).
			Logger()

		run.Start()
		startTime := time.Now()
		err := task.Run(ctx)
		processingTime := time.Since(startTime)
		run.Finish(err)

		if err != nil {
			atomic.AddUint64(&wp.failedTasks, 1)
			runLogger.Error().
				Err(err).
				Dur("duration_ms", processingTime).
				Msg("Run failed")
		} else {
			atomic.AddUint64(&wp.processedTasks, 1)
			runLogger.Info().
				Dur("duration_ms", processingTime).
				Msg("Run finished")
		}

		wp.resultQueue <- Result{Run: run, Err: err}
	}
	logger.Debug().Msg("Task queue closed, worker stopping")
}

// Submit queues a task. It blocks while the queue is full.
func (wp *WorkerPool) Submit(task Task) error {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.stopped {
		return ErrPoolStopped
	}
	wp.taskQueue <- task
	return nil
}

// Stop lets the workers drain the queue, waits for them and closes the
// result queue. Results must be consumed concurrently when more tasks than
// the buffer size were submitted.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.taskQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
	close(wp.resultQueue)
	log.Debug().Msg("Worker pool stopped")
}

// WorkerPoolStats holds statistics for the worker pool.
type WorkerPoolStats struct {
	ActiveWorkers  int32  `json:"active_workers"`
	ProcessedTasks uint64 `json:"processed_tasks"`
	FailedTasks    uint64 `json:"failed_tasks"`
	QueuedTasks    int    `json:"queued_tasks"` // Length of the task queue
}

// Stats returns the current statistics of the worker pool.
func (wp *WorkerPool) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		ActiveWorkers:  atomic.LoadInt32(&wp.activeWorkers),
		ProcessedTasks: atomic.LoadUint64(&wp.processedTasks),
		FailedTasks:    atomic.LoadUint64(&wp.failedTasks),
		QueuedTasks:    len(wp.taskQueue), // Note: len(chan) is an approximation
	}
}

// Results returns the result queue, closed by Stop.
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}
