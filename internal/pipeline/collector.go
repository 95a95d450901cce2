package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sonata"

// Collector exposes the stats of every pipeline as Prometheus counters
// labelled by pipeline name.
type Collector struct {
	stats func() []RunStats

	tuplesIn       *prometheus.Desc
	resetsIn       *prometheus.Desc
	skipped        *prometheus.Desc
	results        *prometheus.Desc
	windows        *prometheus.Desc
	processingTime *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector reading a fresh snapshot from stats on
// every scrape.
func NewCollector(stats func() []RunStats) *Collector {
	labels := []string{"pipeline"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "pipeline", name), help, labels, nil)
	}
	return &Collector{
		stats:          stats,
		tuplesIn:       desc("tuples_in_total", "Data tuples read from the sources."),
		resetsIn:       desc("resets_in_total", "Resets read from the sources."),
		skipped:        desc("tuples_skipped_total", "Tuples dropped by the skip error policy."),
		results:        desc("results_total", "Tuples delivered to the sink."),
		windows:        desc("windows_total", "Resets delivered to the sink."),
		processingTime: desc("avg_processing_time_microseconds", "Average time spent pushing one event through the operators."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tuplesIn
	ch <- c.resetsIn
	ch <- c.skipped
	ch <- c.results
	ch <- c.windows
	ch <- c.processingTime
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.stats() {
		ch <- prometheus.MustNewConstMetric(c.tuplesIn, prometheus.CounterValue, float64(s.TuplesIn), s.Name)
		ch <- prometheus.MustNewConstMetric(c.resetsIn, prometheus.CounterValue, float64(s.ResetsIn), s.Name)
		ch <- prometheus.MustNewConstMetric(c.skipped, prometheus.CounterValue, float64(s.Skipped), s.Name)
		ch <- prometheus.MustNewConstMetric(c.results, prometheus.CounterValue, float64(s.Results), s.Name)
		ch <- prometheus.MustNewConstMetric(c.windows, prometheus.CounterValue, float64(s.Windows), s.Name)
		ch <- prometheus.MustNewConstMetric(c.processingTime, prometheus.GaugeValue, s.AvgProcessingTimeUs, s.Name)
	}
}
