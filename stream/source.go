package stream

import (
	"context"
)

// Source is an interface for tuple producers feeding a pipeline.
type Source interface {
	// Open starts the source. The returned channel is closed once the source
	// is exhausted, the context is cancelled, or reading failed.
	Open(ctx context.Context) (<-chan Event, error)
	// Err returns the error that ended the source early, if any. Only
	// meaningful after the channel returned by Open is closed.
	Err() error
	// Close releases the resources held by the source.
	Close() error
}

// Terminated is implemented by sources that deliver their own end-of-stream
// reset, so the driver must not issue another one.
type Terminated interface {
	EmitsFinalReset() bool
}

// SliceSource is a Source replaying a fixed list of events.
type SliceSource struct {
	events []Event
}

// NewSliceSource creates a SliceSource emitting one data event per tuple.
func NewSliceSource(tuples ...Tuple) *SliceSource {
	events := make([]Event, len(tuples))
	for i, t := range tuples {
		events[i] = Data(t)
	}
	return &SliceSource{events: events}
}

// NewEventSource creates a SliceSource emitting the given events.
func NewEventSource(events ...Event) *SliceSource {
	return &SliceSource{events: events}
}

// Open opens the source.
func (s *SliceSource) Open(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event)
	go func() {
		defer close(out)
		for _, ev := range s.events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Err always returns nil.
func (s *SliceSource) Err() error {
	return nil
}

// Close closes the source.
func (s *SliceSource) Close() error {
	return nil
}
