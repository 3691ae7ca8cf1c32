package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deskly_kafka_publish_total",
			Help: "Events handed to Kafka, by topic and outcome.",
		},
		[]string{"topic", "outcome"},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deskly_kafka_publish_duration_seconds",
			Help:    "Time spent writing one event to Kafka.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"topic"},
	)
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)
