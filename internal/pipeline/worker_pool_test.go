package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarungka/sonata/internal/models"
)

// mockTask for testing WorkerPool
type mockTask struct {
	run   *models.Run
	delay time.Duration
	err   error

	mu  sync.Mutex
	ran bool
}

func newMockTask(t *testing.T, name string, delay time.Duration, err error) *mockTask {
	t.Helper()
	run, runErr := models.New(name, "ident")
	require.NoError(t, runErr)
	return &mockTask{run: run, delay: delay, err: err}
}

func (m *mockTask) Record() *models.Run { return m.run }

func (m *mockTask) Run(ctx context.Context) error {
	select {
	case <-time.After(m.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	m.mu.Lock()
	m.ran = true
	m.mu.Unlock()
	return m.err
}

func (m *mockTask) WasRun() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ran
}

func collect(wp *WorkerPool) (<-chan []Result, *sync.WaitGroup) {
	out := make(chan []Result, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var results []Result
		for res := range wp.Results() {
			results = append(results, res)
		}
		out <- results
	}()
	return out, &wg
}

func TestWorkerPool_NewWorkerPool(t *testing.T) {
	wp := NewWorkerPool(0, 0) // Test default values
	assert.Equal(t, 1, wp.workers, "Default workers should be 1")
	assert.Equal(t, 1*10, cap(wp.taskQueue), "Default buffer size for taskQueue")

	wp = NewWorkerPool(5, 50)
	assert.Equal(t, 5, wp.workers)
	assert.Equal(t, 50, cap(wp.taskQueue))
	assert.Equal(t, 50, cap(wp.resultQueue))
}

func TestWorkerPool_StartStop(t *testing.T) {
	wp := NewWorkerPool(2, 10)
	wp.Start(context.Background())
	wp.Stop()

	assert.Equal(t, int32(0), wp.Stats().ActiveWorkers, "All workers should be stopped")
	_, resultOpen := <-wp.resultQueue
	assert.False(t, resultOpen, "Result queue should be closed after stop")

	assert.ErrorIs(t, wp.Submit(newMockTask(t, "late", 0, nil)), ErrPoolStopped)
	wp.Stop() // second stop is a no-op
}

func TestWorkerPool_ProcessTasks(t *testing.T) {
	numTasks := 10
	wp := NewWorkerPool(3, numTasks)
	wp.Start(context.Background())
	results, wg := collect(wp)

	tasks := make([]*mockTask, numTasks)
	for i := range tasks {
		tasks[i] = newMockTask(t, fmt.Sprintf("task-%d", i), 5*time.Millisecond, nil)
		require.NoError(t, wp.Submit(tasks[i]))
	}
	wp.Stop()
	wg.Wait()

	assert.Len(t, <-results, numTasks, "Should have processed all tasks")
	assert.Equal(t, uint64(numTasks), wp.Stats().ProcessedTasks)
	for i, task := range tasks {
		assert.True(t, task.WasRun(), "Task %d should have run", i)
		assert.Equal(t, models.StatusSucceeded, task.run.Status())
	}
}

func TestWorkerPool_TaskFailure(t *testing.T) {
	wp := NewWorkerPool(1, 5)
	wp.Start(context.Background())
	results, wg := collect(wp)

	ok := newMockTask(t, "ok", 0, nil)
	bad := newMockTask(t, "bad", 0, fmt.Errorf("mock processing error"))
	require.NoError(t, wp.Submit(ok))
	require.NoError(t, wp.Submit(bad))
	wp.Stop()
	wg.Wait()

	var failed []Result
	for _, res := range <-results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, bad.run, failed[0].Run)
	assert.Equal(t, models.StatusFailed, bad.run.Status())
	assert.Equal(t, uint64(1), wp.Stats().FailedTasks)
	assert.Equal(t, uint64(1), wp.Stats().ProcessedTasks)
}

func TestWorkerPool_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	wp := NewWorkerPool(1, 1)
	wp.Start(ctx)
	results, wg := collect(wp)

	require.NoError(t, wp.Submit(newMockTask(t, "slow", time.Hour, nil)))
	cancel()
	wp.Stop()
	wg.Wait()

	res := <-results
	require.Len(t, res, 1)
	assert.ErrorIs(t, res[0].Err, context.Canceled)
}
