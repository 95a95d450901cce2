package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tarungka/sonata/stream"
)

// RunMetrics holds various metrics for one pipeline. It implements
// stream.Observer for the input side, and Counting wraps the sink to count
// the output side.
type RunMetrics struct {
	name string
	mu   sync.RWMutex // protects lastSkipped

	// Counters (using atomic for safe concurrent updates)
	tuplesIn    uint64 // data tuples read from the sources
	resetsIn    uint64 // resets read from the sources, including end of input
	skipped     uint64 // tuples dropped under the skip policy
	results     uint64 // tuples that reached the sink
	windows     uint64 // resets that reached the sink
	lastSkipped string

	// Timings
	totalProcessingTimeNs int64
	processingTimeCount   uint64
}

// NewRunMetrics creates a new RunMetrics collector.
func NewRunMetrics(name string) *RunMetrics {
	return &RunMetrics{name: name}
}

// Name returns the pipeline name the metrics are recorded for.
func (m *RunMetrics) Name() string {
	return m.name
}

func (m *RunMetrics) TupleIn() {
	atomic.AddUint64(&m.tuplesIn, 1)
}

func (m *RunMetrics) ResetIn() {
	atomic.AddUint64(&m.resetsIn, 1)
}

// TupleSkipped counts a dropped tuple and remembers its error.
func (m *RunMetrics) TupleSkipped(err error) {
	atomic.AddUint64(&m.skipped, 1)
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSkipped = err.Error()
}

// Processed records the time one event took to travel through the operators.
func (m *RunMetrics) Processed(d time.Duration) {
	atomic.AddInt64(&m.totalProcessingTimeNs, d.Nanoseconds())
	atomic.AddUint64(&m.processingTimeCount, 1)
}

// Counting returns an operator counting what is pushed into next.
func (m *RunMetrics) Counting(next stream.Operator) stream.Operator {
	return stream.OperatorFuncs{
		NextFn: func(tup stream.Tuple) error {
			atomic.AddUint64(&m.results, 1)
			return next.Next(tup)
		},
		ResetFn: func(ctx stream.Tuple) error {
			atomic.AddUint64(&m.windows, 1)
			return next.Reset(ctx)
		},
	}
}

// RunStats represents a snapshot of the current pipeline metrics.
type RunStats struct {
	Name                string  `json:"name"`
	TuplesIn            uint64  `json:"tuples_in"`
	ResetsIn            uint64  `json:"resets_in"`
	Skipped             uint64  `json:"skipped"`
	Results             uint64  `json:"results"`
	Windows             uint64  `json:"windows"`
	LastSkipped         string  `json:"last_skipped,omitempty"`
	AvgProcessingTimeUs float64 `json:"avg_processing_time_us"`
}

// GetStats returns a snapshot of the current pipeline statistics.
func (m *RunMetrics) GetStats() RunStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totalTimeNs := atomic.LoadInt64(&m.totalProcessingTimeNs)
	timeCount := atomic.LoadUint64(&m.processingTimeCount)

	var avgProcessingTimeUs float64
	if timeCount > 0 {
		avgProcessingTimeUs = float64(totalTimeNs) / float64(timeCount) / 1e3
	}

	return RunStats{
		Name:                m.name,
		TuplesIn:            atomic.LoadUint64(&m.tuplesIn),
		ResetsIn:            atomic.LoadUint64(&m.resetsIn),
		Skipped:             atomic.LoadUint64(&m.skipped),
		Results:             atomic.LoadUint64(&m.results),
		Windows:             atomic.LoadUint64(&m.windows),
		LastSkipped:         m.lastSkipped,
		AvgProcessingTimeUs: avgProcessingTimeUs,
	}
}
