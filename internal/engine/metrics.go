package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts engine activity. A nil *Metrics is valid and records
// nothing, so the engine never checks whether metrics were configured.
type Metrics struct {
	// classesScanned counts classes run through both passes.
	classesScanned prometheus.Counter

	// renames counts applied renames.
	// Labels: kind (class, method), category (factory, location)
	renames *prometheus.CounterVec

	// rejected counts recovered names that failed validation.
	// Labels: kind (class, method)
	rejected *prometheus.CounterVec

	// decodeFailures counts method bodies skipped for decode errors.
	decodeFailures prometheus.Counter

	// discovery counts how each ref was resolved.
	// Labels: ref (factory, location), outcome (configured, discovered,
	// config_error, or a lower-cased discovery error code)
	discovery *prometheus.CounterVec
}

// NewMetrics registers the engine counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		classesScanned: f.NewCounter(prometheus.CounterOpts{
			Namespace: "logrename",
			Name:      "classes_scanned_total",
			Help:      "Classes run through the factory and location passes",
		}),
		renames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logrename",
			Name:      "renames_total",
			Help:      "Applied renames by entity kind and call category",
		}, []string{"kind", "category"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logrename",
			Name:      "rejected_names_total",
			Help:      "Recovered names that failed validation",
		}, []string{"kind"}),
		decodeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "logrename",
			Name:      "decode_failures_total",
			Help:      "Method bodies skipped because they could not be decoded",
		}),
		discovery: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logrename",
			Name:      "ref_resolutions_total",
			Help:      "Method ref resolutions by ref and outcome",
		}, []string{"ref", "outcome"}),
	}
}

func (m *Metrics) classScanned() {
	if m == nil {
		return
	}
	m.classesScanned.Inc()
}

func (m *Metrics) renamed(kind RenameKind, cat Category) {
	if m == nil {
		return
	}
	m.renames.WithLabelValues(string(kind), string(cat)).Inc()
}

func (m *Metrics) rejectedName(kind RenameKind) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) decodeFailed() {
	if m == nil {
		return
	}
	m.decodeFailures.Inc()
}

func (m *Metrics) resolved(cat Category, outcome string) {
	if m == nil {
		return
	}
	m.discovery.WithLabelValues(string(cat), outcome).Inc()
}
