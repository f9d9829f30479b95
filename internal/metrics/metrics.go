package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Deploy lifecycle metrics - Track what reaches the chain
var (
	DeploysBuilt = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casperdash_deploys_built_total",
			Help: "Total number of deploys built by call name",
		},
		[]string{"call"},
	)

	SimulationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casperdash_simulations_total",
			Help: "Total number of speculative executions by outcome",
		},
		[]string{"outcome"},
	)

	DeploysBroadcast = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casperdash_deploys_broadcast_total",
		Help: "Total number of deploys sent to the node",
	})

	DeploysFinalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casperdash_deploys_finalized_total",
			Help: "Total number of deploys that reached a terminal state, by status",
		},
		[]string{"status"},
	)
)

// Performance metrics - Track latency
var (
	DeployFinalityDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "casperdash_deploy_finality_duration_seconds",
		Help:    "Time from broadcast until a terminal execution result",
		Buckets: []float64{5, 15, 30, 60, 90, 120, 180, 300},
	})

	PollAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "casperdash_deploy_poll_attempts",
		Help:    "Number of status queries needed per waited deploy",
		Buckets: []float64{1, 5, 10, 20, 40, 60, 120, 300},
	})

	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "casperdash_rpc_duration_seconds",
			Help:    "Time taken by node RPC calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// Query metrics - Track NFT lookups
var (
	DictionaryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casperdash_dictionary_lookups_total",
			Help: "Total number of dictionary lookups by outcome",
		},
		[]string{"outcome"},
	)

	TokensResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casperdash_tokens_resolved_total",
		Help: "Total number of token detail records produced",
	})

	TrackedCollections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casperdash_tracked_collections",
		Help: "Number of collections loaded into the registry",
	})
)

// Error metrics - Track failures
var (
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casperdash_errors_total",
			Help: "Total number of errors by service",
		},
		[]string{"service"},
	)
)
