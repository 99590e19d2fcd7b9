package bundler

import "github.com/prometheus/client_golang/prometheus"

// metricsSet holds the bundler's optional Prometheus instruments
// (spec §6 ambient metrics), registered only when a Registerer is
// supplied, mirroring dittofs's optional-registerer pattern.
type metricsSet struct {
	flushesTotal     prometheus.Counter
	bytesFlushedTotal prometheus.Counter
	queuedMessages   prometheus.Gauge
}

func newMetricsSet(reg prometheus.Registerer) *metricsSet {
	if reg == nil {
		return nil
	}
	m := &metricsSet{
		flushesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portico",
			Subsystem: "bundler",
			Name:      "flushes_total",
			Help:      "Number of bundles flushed to the wire.",
		}),
		bytesFlushedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portico",
			Subsystem: "bundler",
			Name:      "bytes_flushed_total",
			Help:      "Total bundle payload bytes written to the wire.",
		}),
		queuedMessages: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "portico",
			Subsystem: "bundler",
			Name:      "queued_messages",
			Help:      "Messages currently buffered awaiting flush.",
		}),
	}
	reg.MustRegister(m.flushesTotal, m.bytesFlushedTotal, m.queuedMessages)
	return m
}

func (m *metricsSet) observeFlush(bytesWritten int) {
	if m == nil {
		return
	}
	m.flushesTotal.Inc()
	m.bytesFlushedTotal.Add(float64(bytesWritten))
	m.queuedMessages.Set(0)
}

func (m *metricsSet) observeQueued(n int) {
	if m == nil {
		return
	}
	m.queuedMessages.Set(float64(n))
}
