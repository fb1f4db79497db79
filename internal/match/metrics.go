package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "algorumble_matches_created_total",
		Help: "Matches created by pair formation.",
	})
	matchesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "algorumble_matches_completed_total",
		Help: "Matches finished with a winner or as a draw.",
	})
	sweeperReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "algorumble_sweeper_reconciled_total",
		Help: "Matches resolved by the defensive sweeper.",
	})
)
