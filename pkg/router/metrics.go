// Copyright 2025 The lcp-enclave-go Authors

package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are the counters observed at the router's single commit/rollback
// choke point, the natural place to watch the atomicity invariant in
// production.
type metrics struct {
	commandsTotal  *prometheus.CounterVec
	commitsTotal   prometheus.Counter
	rollbacksTotal prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lcp_commands_total",
			Help: "Total commands dispatched by the router, labeled by command and result.",
		}, []string{"command", "result"}),
		commitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lcp_commits_total",
			Help: "Total store commits performed by the router.",
		}),
		rollbacksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lcp_rollbacks_total",
			Help: "Total store rollbacks performed by the router.",
		}),
	}
}
