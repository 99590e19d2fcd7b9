package federation

import "github.com/prometheus/client_golang/prometheus"

// metricsSet mirrors pkg/bundler's optional-Prometheus-registerer
// idiom (marmos91-dittofs style): nil Registerer disables metrics
// entirely, every observe call is a guarded no-op on a nil receiver.
type metricsSet struct {
	outgoingQueueDepth   prometheus.Gauge
	outgoingDroppedTotal prometheus.Counter
	controlSendErrors    prometheus.Counter
}

func newMetricsSet(reg prometheus.Registerer) *metricsSet {
	if reg == nil {
		return nil
	}
	m := &metricsSet{
		outgoingQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "portico",
			Subsystem: "federation",
			Name:      "outgoing_queue_depth",
			Help:      "Number of control messages currently queued for the outgoing processor.",
		}),
		outgoingDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portico",
			Subsystem: "federation",
			Name:      "outgoing_dropped_total",
			Help:      "Control messages dropped because the outgoing queue was full.",
		}),
		controlSendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "portico",
			Subsystem: "federation",
			Name:      "control_send_errors_total",
			Help:      "Control requests that failed after exhausting retry backoff.",
		}),
	}
	reg.MustRegister(m.outgoingQueueDepth, m.outgoingDroppedTotal, m.controlSendErrors)
	return m
}

func (m *metricsSet) observeQueueDepth(n int) {
	if m == nil {
		return
	}
	m.outgoingQueueDepth.Set(float64(n))
}

func (m *metricsSet) observeDropped() {
	if m == nil {
		return
	}
	m.outgoingDroppedTotal.Inc()
}

func (m *metricsSet) observeSendError() {
	if m == nil {
		return
	}
	m.controlSendErrors.Inc()
}
