package sinks

import (
	"sort"
	"sync"

	"github.com/go-faster/errors"

	"github.com/tarungka/sonata/stream"
)

// Sink is the terminal operator of a pipeline, owning an output resource.
type Sink interface {
	stream.Operator
	Close() error
}

// SinkCreator creates a specific type of sink
type SinkCreator func(cfg SinkConfig) (Sink, error)

var (
	mu       sync.RWMutex
	creators = map[string]SinkCreator{
		"stdout": NewStdoutSink,
		"file":   NewFileSink,
		"kafka":  NewKafkaSink,
	}
)

// RegisterSink registers a new sink type. Registering an existing name
// replaces it.
func RegisterSink(name string, creator SinkCreator) {
	mu.Lock()
	defer mu.Unlock()
	creators[name] = creator
}

// CreateSink creates a sink for cfg. An empty type means stdout.
func CreateSink(cfg SinkConfig) (Sink, error) {
	typ := cfg.ConnectionType
	if typ == "" {
		typ = "stdout"
	}

	mu.RLock()
	creator, ok := creators[typ]
	mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("unknown sink type: %q", typ)
	}
	return creator(cfg)
}

// Types returns the registered sink types in sorted order.
func Types() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(creators))
	for name := range creators {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
