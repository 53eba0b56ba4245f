package store

import "github.com/prometheus/client_golang/prometheus"

const (
	loadCache    = "cache"
	loadResource = "resource"
	loadCreated  = "created"
	loadCorrupt  = "corrupt"
)

// Metrics counts Store loads by source and saves by result. A nil *Metrics
// records nothing.
type Metrics struct {
	loads *prometheus.CounterVec
	saves *prometheus.CounterVec
}

// NewMetrics registers the store counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm",
			Subsystem: "store",
			Name:      "loads_total",
			Help:      "Database loads by source (cache, resource, created, corrupt).",
		}, []string{"source"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm",
			Subsystem: "store",
			Name:      "saves_total",
			Help:      "Database saves by result (ok, error).",
		}, []string{"result"}),
	}
	reg.MustRegister(m.loads, m.saves)
	return m
}

func (m *Metrics) load(source string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(source).Inc()
}

func (m *Metrics) save(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.saves.WithLabelValues(result).Inc()
}
