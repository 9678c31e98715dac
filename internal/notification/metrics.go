package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	channelPush  = "push"
	channelEmail = "email"
)

var (
	// AttemptsTotal counts delivery attempts.
	// Labels: channel (push, email), result (sent, skipped, failed)
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medbs",
			Subsystem: "notification",
			Name:      "attempts_total",
			Help:      "Notification delivery attempts by channel and result",
		},
		[]string{"channel", "result"},
	)

	// DroppedTotal counts notifications rejected because the queue was full or stopped.
	DroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medbs",
			Subsystem: "notification",
			Name:      "dropped_total",
			Help:      "Notifications dropped before an attempt was made",
		},
		[]string{"channel"},
	)
)
