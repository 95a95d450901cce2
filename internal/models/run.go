package models

import (
	"sync"
	"time"

	uuid "github.com/google/uuid"

	"github.com/tarungka/sonata/internal/logger"
)

// Status is the lifecycle state of a Run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is a struct that holds all the data about one execution of a
// pipeline and other metadata necessary
type Run struct {
	ID       uuid.UUID // a UUID v7 to identify the run
	Pipeline string
	Query    string

	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
	status     Status
	err        error

	// runs are started by pool workers and read by the status server
	mu *sync.RWMutex
}

// RunInfo is a point in time copy of a Run.
type RunInfo struct {
	ID         string    `json:"id"`
	Pipeline   string    `json:"pipeline"`
	Query      string    `json:"query"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Start marks the run as running.
func (r *Run) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startedAt = time.Now()
	r.status = StatusRunning
}

// Finish marks the run as done, failed when err is not nil.
func (r *Run) Finish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishedAt = time.Now()
	r.err = err
	if err != nil {
		r.status = StatusFailed
	} else {
		r.status = StatusSucceeded
	}
}

func (r *Run) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Run) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Duration returns how long the run took, or has been running for.
func (r *Run) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case r.startedAt.IsZero():
		return 0
	case r.finishedAt.IsZero():
		return time.Since(r.startedAt)
	default:
		return r.finishedAt.Sub(r.startedAt)
	}
}

func (r *Run) Info() RunInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info := RunInfo{
		ID:         r.ID.String(),
		Pipeline:   r.Pipeline,
		Query:      r.Query,
		Status:     r.status,
		CreatedAt:  r.createdAt,
		StartedAt:  r.startedAt,
		FinishedAt: r.finishedAt,
	}
	if r.err != nil {
		info.Error = r.err.Error()
	}
	return info
}

// New creates a pending run of query under the given pipeline name.
func New(pipeline, query string) (*Run, error) {
	id, err := uuid.NewV7()
	if err != nil {
		logger.AdHocLogger.Err(err).Msg("error when creating a new run")
		return nil, err
	}
	return &Run{
		ID:        id,
		Pipeline:  pipeline,
		Query:     query,
		createdAt: time.Now(),
		status:    StatusPending,
		mu:        &sync.RWMutex{},
	}, nil
}
