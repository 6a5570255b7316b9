package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c4o_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "c4o_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Realtime metrics
	ConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "c4o_ws_connections_open",
			Help: "Currently open websocket connections",
		},
	)

	UsersOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "c4o_users_online",
			Help: "Identities with at least one live connection",
		},
	)

	EventsPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "c4o_events_pushed_total",
			Help: "Total events fanned out to live connections",
		},
		[]string{"event"},
	)

	// Business metrics
	DMsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "c4o_dms_sent_total",
			Help: "Total direct messages sent",
		},
	)

	GroupMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "c4o_group_messages_sent_total",
			Help: "Total group messages sent",
		},
	)

	RemindersFired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "c4o_reminders_fired_total",
			Help: "Total due reminders fired",
		},
	)

	// Store metrics
	StoreWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "c4o_store_writes_total",
			Help: "Total successful document persists",
		},
	)

	StoreWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "c4o_store_write_failures_total",
			Help: "Total rejected document persists",
		},
	)
)
