package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reservation outcomes.
const (
	ReservationCommitted    = "committed"
	ReservationInsufficient = "insufficient_stock"
	ReservationNotFound     = "product_not_found"
	ReservationError        = "error"
)

// StockMetrics tracks the stock reservation transaction.
type StockMetrics struct {
	reservations *prometheus.CounterVec
	duration     prometheus.Histogram
	units        prometheus.Counter
}

// NewStockMetrics registers the reservation collectors on reg.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	m := &StockMetrics{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "reservations_total",
			Help:      "Stock reservation attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "reservation_duration_seconds",
			Help:      "Wall time of the reservation transaction including retries.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		units: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stock",
			Name:      "units_decremented_total",
			Help:      "Product units removed from stock by committed reservations.",
		}),
	}
	reg.MustRegister(m.reservations, m.duration, m.units)
	return m
}

// ObserveReservation records one reservation attempt.
func (m *StockMetrics) ObserveReservation(outcome string, duration time.Duration, units int) {
	if m == nil || m.reservations == nil {
		return
	}
	m.reservations.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(duration.Seconds())
	if outcome == ReservationCommitted && units > 0 {
		m.units.Add(float64(units))
	}
}
