package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	Register(
		telegramUpdatesTotal,
		telegramHandlerSeconds,
		telegramSendsTotal,
		telegramPanicsTotal,
	)
}

var (
	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Inbound updates by kind (command, callback, text, contact) and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	telegramHandlerSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telegram_handler_seconds",
			Help:    "Time spent handling one update.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	telegramSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_sends_total",
			Help: "Outbound sends by status (ok, retry, fail).",
		},
		[]string{"status"},
	)

	telegramPanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_handler_panics_total",
			Help: "Handler panics recovered by middleware.",
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ObserveUpdate records one handled update.
func ObserveUpdate(kind string, took time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	telegramUpdatesTotal.WithLabelValues(norm(kind), outcome).Inc()
	telegramHandlerSeconds.WithLabelValues(norm(kind)).Observe(took.Seconds())
}

// IncSend counts an outbound send attempt result.
func IncSend(status string) {
	telegramSendsTotal.WithLabelValues(norm(status)).Inc()
}

// IncPanic counts a recovered handler panic.
func IncPanic() {
	telegramPanicsTotal.Inc()
}
