package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label value constants to prevent typos
const (
	// Notification sources
	SourceEvent = "event"
	SourceLoop  = "loop"
	SourceQuest = "quest"

	// Tick results
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chime_ticks_total",
			Help: "Total number of dispatch ticks by result",
		},
		[]string{"result"},
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chime_tick_duration_seconds",
			Help:    "Wall time of one full dispatch tick",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	SnapshotLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chime_snapshot_load_duration_seconds",
			Help:    "Time spent loading the tick working set",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chime_notifications_sent_total",
			Help: "Notifications handed to the push service, by source",
		},
		[]string{"source"},
	)

	DeliveryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chime_delivery_errors_total",
			Help: "Push deliveries that failed after a won claim, by source",
		},
		[]string{"source"},
	)

	ClaimConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chime_claim_conflicts_total",
			Help: "Occurrences already claimed by an earlier or concurrent tick",
		},
		[]string{"source"},
	)

	LoopSuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chime_loop_suppressed_total",
			Help: "Loop notifications skipped because an event reminder fired in the same tick",
		},
	)

	SubscriptionsDeactivatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chime_subscriptions_deactivated_total",
			Help: "Subscriptions pruned after the push service reported them gone",
		},
	)

	PushSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chime_push_send_duration_seconds",
			Help:    "Outbound push request latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)
