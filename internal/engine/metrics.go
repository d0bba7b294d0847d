package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "settleup",
		Subsystem: "sync",
		Name:      "pushed_total",
		Help:      "Outbox entries successfully delivered to the remote store.",
	})

	pushFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "settleup",
		Subsystem: "sync",
		Name:      "push_failures_total",
		Help:      "Outbox entries that failed delivery and were left queued.",
	})

	pulledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "settleup",
		Subsystem: "sync",
		Name:      "pulled_total",
		Help:      "Remote records applied to the local cache during pull.",
	})

	// Conflict-ignored is not a failure, but it must be observable.
	conflictsIgnoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "settleup",
		Subsystem: "sync",
		Name:      "conflicts_ignored_total",
		Help:      "Pull candidates discarded because the local copy was newer or equal.",
	})

	syncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "settleup",
		Subsystem: "sync",
		Name:      "runs_total",
		Help:      "Completed full sync attempts by result.",
	}, []string{"result"})
)
