package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the donation lifecycle.
type Metrics struct {
	// Lifecycle transitions by type (create, claim, accept, complete, reopen, delete)
	Transitions *prometheus.CounterVec

	// Arbitration races lost to a concurrent transition
	InterestConflicts prometheus.Counter

	// Interests expressed
	InterestsExpressed prometheus.Counter
}

// New creates a Metrics instance with all donation metrics registered.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hopecycle_donation_transitions_total",
			Help: "Total donation lifecycle transitions by type",
		}, []string{"transition"}),

		InterestConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hopecycle_donation_interest_conflicts_total",
			Help: "Total interest operations rejected by a concurrent state change",
		}),

		InterestsExpressed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hopecycle_donation_interests_total",
			Help: "Total interests expressed by NGOs",
		}),
	}
}

// IncrementTransition records a lifecycle transition.
func (m *Metrics) IncrementTransition(transition string) {
	if m != nil {
		m.Transitions.WithLabelValues(transition).Inc()
	}
}

// IncrementConflict records an arbitration race loss.
func (m *Metrics) IncrementConflict() {
	if m != nil {
		m.InterestConflicts.Inc()
	}
}

// IncrementInterest records a new expression of interest.
func (m *Metrics) IncrementInterest() {
	if m != nil {
		m.InterestsExpressed.Inc()
	}
}
