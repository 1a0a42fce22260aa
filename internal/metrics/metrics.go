package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hashchat"

// Relay agrupa los colectores del motor de relay.
type Relay struct {
	submissions  *prometheus.CounterVec
	pushFailures prometheus.Counter
	pushes       prometheus.Counter
}

// NewRelay crea y registra los colectores en reg.
func NewRelay(reg prometheus.Registerer) *Relay {
	m := &Relay{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "submissions_total",
			Help:      "Message submissions by terminal outcome.",
		}, []string{"outcome"}),
		pushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "push_failures_total",
			Help:      "Pushes to a live channel that failed.",
		}),
		pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "pushes_total",
			Help:      "Pushes attempted to live channels.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.submissions, m.pushFailures, m.pushes)
	}
	return m
}

func (m *Relay) ObserveOutcome(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Relay) ObservePush(err error) {
	m.pushes.Inc()
	if err != nil {
		m.pushFailures.Inc()
	}
}

// RegisterSessionGauge expone la cantidad de canales registrados.
func RegisterSessionGauge(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Live channels bound to a user id.",
	}, func() float64 { return float64(count()) }))
}
