package sources

import (
	"sort"
	"sync"

	"github.com/go-faster/errors"

	"github.com/tarungka/sonata/stream"
)

// SourceFactory creates sources based on configuration
type SourceFactory struct {
	mu       sync.RWMutex
	creators map[string]SourceCreator
}

// SourceCreator creates a specific type of source
type SourceCreator func(cfg SourceConfig) (stream.Source, error)

var defaultFactory = &SourceFactory{
	creators: make(map[string]SourceCreator),
}

// TypeWaltsCSV is the connection type of flow export files. Its tuples carry
// no packet time.
const TypeWaltsCSV = "walts_csv"

func init() {
	RegisterSource(TypeWaltsCSV, NewWaltsCSVSource)
	RegisterSource("synthetic", NewSyntheticSource)
	RegisterSource("kafka", NewKafkaSource)
}

// RegisterSource registers a new source type with the default factory.
// Registering an existing name replaces it.
func RegisterSource(name string, creator SourceCreator) {
	defaultFactory.mu.Lock()
	defer defaultFactory.mu.Unlock()
	defaultFactory.creators[name] = creator
}

// CreateSource creates a source instance using the default factory.
func CreateSource(cfg SourceConfig) (stream.Source, error) {
	defaultFactory.mu.RLock()
	creator, exists := defaultFactory.creators[cfg.ConnectionType]
	defaultFactory.mu.RUnlock()

	if !exists {
		return nil, errors.Errorf("unknown source type: %q", cfg.ConnectionType)
	}
	return creator(cfg)
}

// Types returns the registered source types in sorted order.
func Types() []string {
	defaultFactory.mu.RLock()
	defer defaultFactory.mu.RUnlock()

	out := make([]string, 0, len(defaultFactory.creators))
	for name := range defaultFactory.creators {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
