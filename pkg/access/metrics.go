package access

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "access_decisions_total",
		Help: "Authorization decisions by outcome and operation kind.",
	},
	[]string{"decision", "operation"},
)
