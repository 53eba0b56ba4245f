package collection

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts accessor operations. A nil *Metrics records nothing.
type Metrics struct {
	ops *prometheus.CounterVec
}

// NewMetrics registers the operation counter on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm",
			Subsystem: "collection",
			Name:      "operations_total",
			Help:      "Record operations by collection, operation and outcome.",
		}, []string{"collection", "op", "outcome"}),
	}
	reg.MustRegister(m.ops)
	return m
}

func (m *Metrics) observe(collection, op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ops.WithLabelValues(collection, op, outcome).Inc()
}
