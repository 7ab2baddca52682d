package mon

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	bytesReadDesc = prometheus.NewDesc(
		"seqio_bytes_read_total",
		"Total bytes delivered by sequential reads.",
		nil, nil)

	thunkTotalDesc = prometheus.NewDesc(
		"seqio_operations_total",
		"Total completed timed operations.",
		[]string{"op"}, nil)

	thunkCurrentDesc = prometheus.NewDesc(
		"seqio_operations_in_flight",
		"Timed operations currently executing.",
		[]string{"op"}, nil)

	thunkAverageDesc = prometheus.NewDesc(
		"seqio_operation_average_seconds",
		"Average duration of recent timed operations.",
		[]string{"op"}, nil)
)

// Collector exposes the package counters and registered thunks as
// Prometheus metrics.
type Collector struct{}

// NewCollector returns a Collector. It holds no state, so any number may be
// created, but only one may be registered with a given registry.
func NewCollector() *Collector { return &Collector{} }

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- bytesReadDesc
	ch <- thunkTotalDesc
	ch <- thunkCurrentDesc
	ch <- thunkAverageDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(bytesReadDesc, prometheus.CounterValue, float64(BytesRead()))

	for _, t := range Thunks() {
		ch <- prometheus.MustNewConstMetric(thunkTotalDesc, prometheus.CounterValue, float64(t.Total()), t.name)
		ch <- prometheus.MustNewConstMetric(thunkCurrentDesc, prometheus.GaugeValue, float64(t.Current()), t.name)
		ch <- prometheus.MustNewConstMetric(thunkAverageDesc, prometheus.GaugeValue, t.Average().Seconds(), t.name)
	}
}

var _ prometheus.Collector = (*Collector)(nil)
