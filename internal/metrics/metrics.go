// Package metrics holds the Prometheus collectors for the booking engine.
// Collectors register on the default registry; cmd/api exposes it on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pkordes/carpool/internal/domain"
)

var (
	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carpool",
		Name:      "booking_transitions_total",
		Help:      "Booking state machine transitions by outcome.",
	}, []string{"transition", "outcome"})

	txDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "carpool",
		Name:      "booking_tx_duration_seconds",
		Help:      "Duration of booking transactions, retries included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"transition"})
)

// ObserveTransition counts one attempt at transition; the outcome label is
// the domain kind of err ("ok" on success).
func ObserveTransition(transition string, err error) {
	transitions.WithLabelValues(transition, domain.Kind(err)).Inc()
}

// ObserveTx records how long the transaction for transition took.
func ObserveTx(transition string, d time.Duration) {
	txDuration.WithLabelValues(transition).Observe(d.Seconds())
}
