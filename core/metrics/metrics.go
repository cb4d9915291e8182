// Package metrics exposes the bot's Prometheus collectors and the /metrics listener.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "fishshop"

// Registry holds every collector of the process.
var Registry = prometheus.NewRegistry()

var (
	UpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "telegram",
		Name:      "updates_total",
		Help:      "Telegram updates handled, by kind and outcome.",
	}, []string{"kind", "outcome"})

	MessagesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "telegram",
		Name:      "messages_sent_total",
		Help:      "Outbound messages and callback answers, by kind.",
	}, []string{"kind"})

	RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "telegram",
		Name:      "rate_limited_total",
		Help:      "Updates dropped by the per-user rate limit.",
	}, []string{"kind"})

	TransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "conversation",
		Name:      "transitions_total",
		Help:      "Conversation transitions, by source state, target state and result.",
	}, []string{"from", "to", "result"})

	BackendRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "moltin",
		Name:      "requests_total",
		Help:      "Commerce backend requests, by operation and result class.",
	}, []string{"op", "result"})

	BackendDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "moltin",
		Name:      "request_duration_seconds",
		Help:      "Commerce backend request latency.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"op"})

	TokenRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "credential",
		Name:      "refresh_total",
		Help:      "Access token refresh attempts, by result.",
	}, []string{"result"})

	TokenExpiry = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "credential",
		Name:      "token_expiry_timestamp_seconds",
		Help:      "Expiry of the current access token as a unix timestamp.",
	})

	SequencerPending = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "sequencer",
		Name:      "pending_updates",
		Help:      "Updates queued across all chat lanes.",
	})

	SequencerRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sequencer",
		Name:      "rejected_total",
		Help:      "Updates rejected because the sequencer was full or closed.",
	})

	OrdersRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "recorded_total",
		Help:      "Completed orders written to the journal, by result.",
	}, []string{"result"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		UpdatesTotal,
		MessagesSentTotal,
		RateLimitedTotal,
		TransitionsTotal,
		BackendRequestsTotal,
		BackendDuration,
		TokenRefreshTotal,
		TokenExpiry,
		SequencerPending,
		SequencerRejectedTotal,
		OrdersRecordedTotal,
	)
}

// Result maps err to the "result" label value.
func Result(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// ObserveBackend records one commerce backend call.
func ObserveBackend(op, result string, took time.Duration) {
	if op == "" {
		op = "unknown"
	}
	BackendRequestsTotal.WithLabelValues(op, result).Inc()
	BackendDuration.WithLabelValues(op).Observe(took.Seconds())
}

// ObserveTransition records one conversation step. Rejected steps carry an empty to.
func ObserveTransition(from, to string, ok bool) {
	if from == "" {
		from = "IDLE"
	}
	if !ok {
		TransitionsTotal.WithLabelValues(from, "", "rejected").Inc()
		return
	}
	TransitionsTotal.WithLabelValues(from, to, "ok").Inc()
}

// ObserveTokenRefresh records a refresh attempt and, on success, the new expiry.
func ObserveTokenRefresh(expiresAt time.Time, err error) {
	TokenRefreshTotal.WithLabelValues(Result(err)).Inc()
	if err == nil && !expiresAt.IsZero() {
		TokenExpiry.Set(float64(expiresAt.Unix()))
	}
}
