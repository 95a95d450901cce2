package stream

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// ErrorPolicy decides what the driver does when an operator fails on a tuple.
type ErrorPolicy int

const (
	// ErrorPolicyAbort stops the run and returns the error.
	ErrorPolicyAbort ErrorPolicy = iota
	// ErrorPolicySkip logs the failing tuple and carries on with the next.
	ErrorPolicySkip
)

func (p ErrorPolicy) String() string {
	switch p {
	case ErrorPolicyAbort:
		return "abort"
	case ErrorPolicySkip:
		return "skip"
	default:
		return "unknown"
	}
}

// ParseErrorPolicy parses "abort" or "skip". The empty string means abort.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "", "abort":
		return ErrorPolicyAbort, nil
	case "skip":
		return ErrorPolicySkip, nil
	default:
		return ErrorPolicyAbort, errors.Errorf("unknown error policy %q", s)
	}
}

// Observer is notified of what the driver feeds into a pipeline.
type Observer interface {
	TupleIn()
	ResetIn()
	TupleSkipped(err error)
	Processed(d time.Duration)
}

type nopObserver struct{}

func (nopObserver) TupleIn()                {}
func (nopObserver) ResetIn()                {}
func (nopObserver) TupleSkipped(error)      {}
func (nopObserver) Processed(time.Duration) {}

// Input binds a source to the entry operator it feeds.
type Input struct {
	Source Source
	Entry  Operator
}

// Pipeline drives one or more inputs into their operator chains. All entry
// operators are called from the goroutine running Run, one event at a time,
// taking one event from each open input in turn.
type Pipeline struct {
	name     string
	inputs   []Input
	policy   ErrorPolicy
	logger   zerolog.Logger
	observer Observer
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithErrorPolicy sets the error policy. The default is ErrorPolicyAbort.
func WithErrorPolicy(p ErrorPolicy) PipelineOption {
	return func(pl *Pipeline) {
		pl.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) PipelineOption {
	return func(pl *Pipeline) {
		pl.logger = l
	}
}

// WithObserver sets the observer.
func WithObserver(o Observer) PipelineOption {
	return func(pl *Pipeline) {
		pl.observer = o
	}
}

// NewPipeline creates a new Pipeline.
func NewPipeline(name string, inputs []Input, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		name:     name,
		inputs:   inputs,
		logger:   zerolog.Nop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the name of the pipeline.
func (p *Pipeline) Name() string {
	return p.name
}

// Run feeds every input until all are exhausted, then returns. Each entry
// operator receives a final Reset once its source ends, unless the source
// delivers its own. On any early return the sources are cancelled and
// drained before they are closed.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	chans := make([]<-chan Event, 0, len(p.inputs))
	defer func() {
		cancel()
		drain(chans)
		for _, in := range p.inputs[:len(chans)] {
			err = multierr.Append(err, in.Source.Close())
		}
	}()

	for i, in := range p.inputs {
		ch, openErr := in.Source.Open(ctx)
		if openErr != nil {
			return errors.Wrapf(openErr, "open input %d", i)
		}
		chans = append(chans, ch)
	}

	p.logger.Info().Str("pipeline", p.name).Int("inputs", len(p.inputs)).Msg("Starting pipeline")

	active := len(chans)
	for active > 0 {
		for i, ch := range chans {
			if ch == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			var (
				ev Event
				ok bool
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok = <-ch:
			}

			if !ok {
				chans[i] = nil
				active--
				if err := p.finish(i); err != nil {
					return err
				}
				continue
			}

			if err := p.deliver(i, ev); err != nil {
				return err
			}
		}
	}

	p.logger.Info().Str("pipeline", p.name).Msg("Pipeline finished")
	return nil
}

// drain discards what the sources still send until each closes its channel.
// The sources must have been cancelled.
func drain(chans []<-chan Event) {
	for _, ch := range chans {
		if ch == nil {
			continue
		}
		for range ch {
		}
	}
}

func (p *Pipeline) deliver(i int, ev Event) error {
	start := time.Now()
	if ev.Reset {
		p.observer.ResetIn()
	} else {
		p.observer.TupleIn()
	}

	err := ev.Deliver(p.inputs[i].Entry)
	p.observer.Processed(time.Since(start))
	if err == nil {
		return nil
	}

	if p.policy == ErrorPolicySkip && !ev.Reset {
		p.observer.TupleSkipped(err)
		p.logger.Warn().Err(err).
			Str("pipeline", p.name).
			Int("input", i).
			Str("tuple", ev.Tuple.String()).
			Msg("Skipping tuple")
		return nil
	}
	return errors.Wrapf(err, "pipeline %q input %d", p.name, i)
}

func (p *Pipeline) finish(i int) error {
	in := p.inputs[i]
	if err := in.Source.Err(); err != nil {
		return errors.Wrapf(err, "pipeline %q input %d", p.name, i)
	}
	if t, ok := in.Source.(Terminated); ok && t.EmitsFinalReset() {
		p.logger.Debug().Str("pipeline", p.name).Int("input", i).Msg("Input exhausted")
		return nil
	}
	p.logger.Debug().Str("pipeline", p.name).Int("input", i).Msg("Input exhausted, flushing")
	return p.deliver(i, ResetEvent(Tuple{}))
}
