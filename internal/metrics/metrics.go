// Package metrics exposes the session core's Prometheus instruments.
// All metrics self-register through promauto at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PoolOccupancy tracks how many of the pool's slots are currently
	// allocated, across all three lists plus in-flight sends.
	PoolOccupancy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ocpp_pool_occupancy",
		Help: "Number of allocated slots in the message pool.",
	})

	// MessagesSent counts successful sends, labeled by message type.
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ocpp_messages_sent_total",
		Help: "Total number of messages successfully sent.",
	}, []string{"message_type"})

	// MessagesDropped counts messages dropped after exhausting their
	// retry budget, labeled by message type.
	MessagesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ocpp_messages_dropped_total",
		Help: "Total number of messages dropped after their retry budget was exhausted.",
	}, []string{"message_type"})

	// MessagesEvicted counts messages evicted from a full pool to make
	// room for a forced push, labeled by message type.
	MessagesEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ocpp_messages_evicted_total",
		Help: "Total number of messages evicted from the pool to make room for a forced push.",
	}, []string{"message_type"})

	// HeartbeatsSynthesized counts heartbeats the engine generated on
	// its own, as opposed to ones a host pushed explicitly.
	HeartbeatsSynthesized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ocpp_heartbeats_synthesized_total",
		Help: "Total number of heartbeat requests synthesized by the idle-time scheduler.",
	})

	// CorrelationMisses counts inbound CALLRESULT/CALLERROR frames that
	// could not be matched to any waiting request.
	CorrelationMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ocpp_correlation_misses_total",
		Help: "Total number of inbound responses that did not correlate to a pending request.",
	})

	// StepDuration observes the wall-clock cost of one engine step.
	StepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ocpp_step_duration_seconds",
		Help:    "Histogram of engine step() call durations.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})
)
