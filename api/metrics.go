package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Movement counters are labeled by direction (in/out) and outcome so
// rejection rates (insufficient stock, validation) are visible per kind.
var (
	stockMovements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_stock_movements_total",
			Help: "Stock movement attempts by direction and outcome.",
		},
		[]string{"direction", "outcome"},
	)

	historyRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_history_requests_total",
			Help: "History report builds served.",
		},
	)
)

const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

func observeMovement(direction string, err error, clientErr bool) {
	switch {
	case err == nil:
		stockMovements.WithLabelValues(direction, outcomeOK).Inc()
	case clientErr:
		stockMovements.WithLabelValues(direction, outcomeRejected).Inc()
	default:
		stockMovements.WithLabelValues(direction, outcomeError).Inc()
	}
}
