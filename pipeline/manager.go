package pipeline

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/tarungka/sonata/internal/models"
	metrics "github.com/tarungka/sonata/internal/pipeline"
)

// Manager runs a set of jobs on a worker pool and reports on them.
type Manager struct {
	jobs []*Job
	pool *metrics.WorkerPool
}

// NewManager creates a Manager running at most parallelism jobs at once.
func NewManager(jobs []*Job, parallelism int) *Manager {
	return &Manager{
		jobs: jobs,
		pool: metrics.NewWorkerPool(parallelism, len(jobs)),
	}
}

// Run runs every job and waits for all of them. It returns the combined
// errors of the jobs that failed. Jobs stopped by the cancellation of ctx
// do not count as failed.
func (m *Manager) Run(ctx context.Context) error {
	m.pool.Start(ctx)

	done := make(chan error, 1)
	go func() {
		var err error
		for res := range m.pool.Results() {
			if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
				err = multierr.Append(err, res.Err)
			}
		}
		done <- err
	}()

	log.Info().Int("pipelines", len(m.jobs)).Msg("Starting pipelines")
	for _, j := range m.jobs {
		if err := m.pool.Submit(j); err != nil {
			m.pool.Stop()
			<-done
			return err
		}
	}
	m.pool.Stop()
	return <-done
}

// Stats returns a snapshot of the metrics of every job.
func (m *Manager) Stats() []metrics.RunStats {
	out := make([]metrics.RunStats, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = j.Metrics().GetStats()
	}
	return out
}

// Runs returns the run record of every job.
func (m *Manager) Runs() []models.RunInfo {
	out := make([]models.RunInfo, len(m.jobs))
	for i, j := range m.jobs {
		out[i] = j.Record().Info()
	}
	return out
}

// PoolStats returns the stats of the worker pool.
func (m *Manager) PoolStats() metrics.WorkerPoolStats {
	return m.pool.Stats()
}
