package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	notificationsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_notifications_emitted_total",
			Help: "Notifications emitted by type and outcome.",
		},
		[]string{"type", "result"},
	)
	outboxReplayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_notification_outbox_replayed_total",
			Help: "Outbox replay attempts by outcome.",
		},
		[]string{"result"},
	)
	friendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_friend_requests_total",
			Help: "Friend request transitions.",
		},
		[]string{"transition"},
	)
	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "social_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		notificationsEmitted,
		outboxReplayed,
		friendRequests,
		rateLimited,
	)
}

// NotificationEmitted counts an emission; result is "stored", "queued" or "lost".
func NotificationEmitted(notifType, result string) {
	notificationsEmitted.WithLabelValues(notifType, result).Inc()
}

// OutboxReplayed counts a replay; result is "delivered", "retry" or "dropped".
func OutboxReplayed(result string) {
	outboxReplayed.WithLabelValues(result).Inc()
}

func FriendRequestTransition(transition string) {
	friendRequests.WithLabelValues(transition).Inc()
}

func IncRateLimited() {
	rateLimited.Inc()
}
