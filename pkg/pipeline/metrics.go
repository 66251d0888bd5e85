package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/resolvd/resolvd/internal/build"
)

var (
	pendingQueriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: build.ProjectName,
		Name:      "pending_queries",
		Help:      "Number of queries waiting for their first or next dispatch attempt.",
	})

	inflightQueriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: build.ProjectName,
		Name:      "inflight_queries",
		Help:      "Number of queries currently occupying a concurrency slot.",
	})

	dispatchesTotalCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "resolver_dispatches_total",
		Help:      "Total resolver attempts dispatched, per resolver.",
	}, []string{"resolver"})

	resolverTimeoutsTotalCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "resolver_timeouts_total",
		Help:      "Total resolver attempts abandoned because the resolver did not answer in time.",
	}, []string{"resolver"})

	staleResultsTotalCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "stale_results_total",
		Help:      "Total result deliveries dropped because the query was unknown or already evicted.",
	})

	reapedQueriesTotalCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: build.ProjectName,
		Name:      "reaped_queries_total",
		Help:      "Total temporary queries evicted from the ledger by the reaper.",
	})
)
