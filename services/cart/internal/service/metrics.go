package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskly_cart_operations_total",
			Help: "Cart operations applied to the aggregate, by operation.",
		},
		[]string{"operation"},
	)

	cartPersistWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskly_cart_persist_writes_total",
			Help: "Snapshot writes attempted by the write-behind persister, by result.",
		},
		[]string{"result"},
	)

	cartPersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deskly_cart_persist_duration_seconds",
			Help:    "Duration of snapshot writes in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	cartPersistSuperseded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deskly_cart_persist_superseded_total",
			Help: "Pending snapshots replaced by a newer one before being written.",
		},
	)

	cartHydrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskly_cart_hydrations_total",
			Help: "Cart hydrations from the snapshot store, by outcome.",
		},
		[]string{"outcome"},
	)

	cartEventFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskly_cart_event_publish_failures_total",
			Help: "Cart events that could not be published, by topic.",
		},
		[]string{"topic"},
	)
)

// Label values.
const (
	resultOK          = "ok"
	resultError       = "error"
	resultEncodeError = "encode_error"

	outcomeLoaded = "loaded"
	outcomeEmpty  = "empty"
	outcomeReset  = "reset"
	outcomeError  = "error"
)
