package pipeline

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"

	"github.com/tarungka/sonata/internal/models"
	metrics "github.com/tarungka/sonata/internal/pipeline"
	"github.com/tarungka/sonata/queries"
	"github.com/tarungka/sonata/sinks"
	"github.com/tarungka/sonata/sources"
	"github.com/tarungka/sonata/stream"
)

// Job is one configured query wired to its sources and sink, ready to run
// once.
type Job struct {
	name  string
	query string

	pipeline *stream.Pipeline
	sources  []stream.Source
	sink     sinks.Sink
	metrics  *metrics.RunMetrics
	run      *models.Run
}

// NewJob creates the sources and the sink of qc and wires the query
// between them.
func NewJob(qc QueryConfig, policy stream.ErrorPolicy) (_ *Job, err error) {
	if err := qc.Validate(); err != nil {
		return nil, err
	}
	spec, _ := queries.Lookup(qc.Query)

	sink, err := sinks.CreateSink(qc.Sink)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %q: sink", qc.Name)
	}

	var srcs []stream.Source
	defer func() {
		if err == nil {
			return
		}
		for _, src := range srcs {
			err = multierr.Append(err, src.Close())
		}
		err = multierr.Append(err, sink.Close())
	}()

	for i, sc := range qc.Sources {
		src, err := sources.CreateSource(sc)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline %q: source %d", qc.Name, i)
		}
		srcs = append(srcs, src)
	}

	run, err := models.New(qc.Name, qc.Query)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %q", qc.Name)
	}

	m := metrics.NewRunMetrics(qc.Name)
	out := m.Counting(sink)
	params := queries.Params(qc.Params)

	inputs := make([]stream.Input, 0, len(srcs))
	if spec.Inputs == 1 {
		// one copy of the query per source, all feeding the sink
		for _, src := range srcs {
			inputs = append(inputs, stream.Input{Source: src, Entry: spec.Build(params, out)[0]})
		}
	} else {
		entries := spec.Build(params, out)
		for i, src := range srcs {
			inputs = append(inputs, stream.Input{Source: src, Entry: entries[i]})
		}
	}

	logger := log.With().Str("pipeline", qc.Name).Str("query", qc.Query).Logger()
	logger.Debug().Int("inputs", len(inputs)).Str("sink", qc.Sink.ConnectionType).Msg("Created pipeline")

	return &Job{
		name:  qc.Name,
		query: qc.Query,
		pipeline: stream.NewPipeline(qc.Name, inputs,
			stream.WithErrorPolicy(policy),
			stream.WithLogger(logger),
			stream.WithObserver(m),
		),
		sources: srcs,
		sink:    sink,
		metrics: m,
		run:     run,
	}, nil
}

func (j *Job) Name() string { return j.name }

func (j *Job) Query() string { return j.query }

// Record returns the run record of the job.
func (j *Job) Record() *models.Run { return j.run }

// Metrics returns the live metrics of the job.
func (j *Job) Metrics() *metrics.RunMetrics { return j.metrics }

// Run drives the sources into the query until they are exhausted or ctx is
// done, then closes the sink.
func (j *Job) Run(ctx context.Context) error {
	err := j.pipeline.Run(ctx)
	return multierr.Append(err, j.sink.Close())
}

// discard releases the resources of a job that never ran.
func (j *Job) discard() error {
	var err error
	for _, src := range j.sources {
		err = multierr.Append(err, src.Close())
	}
	return multierr.Append(err, j.sink.Close())
}

// Build validates cfg and creates one job per configured pipeline.
func Build(cfg *Config) ([]*Job, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, _ := cfg.Policy()

	jobs := make([]*Job, 0, len(cfg.Pipelines))
	for _, qc := range cfg.Pipelines {
		job, err := NewJob(qc, policy)
		if err != nil {
			for _, j := range jobs {
				err = multierr.Append(err, j.discard())
			}
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
