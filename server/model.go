package server

import (
	"github.com/tarungka/sonata/internal/models"
	metrics "github.com/tarungka/sonata/internal/pipeline"
)

type ResponseModel struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PipelineStatus is the run record of a pipeline with its live metrics.
type PipelineStatus struct {
	Run   models.RunInfo   `json:"run"`
	Stats metrics.RunStats `json:"stats"`
}

type StatsModel struct {
	Pipelines []metrics.RunStats      `json:"pipelines"`
	Pool      metrics.WorkerPoolStats `json:"pool"`
}
