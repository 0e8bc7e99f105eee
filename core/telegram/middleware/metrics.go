package middleware

import (
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/mayak/orderbot/core/metrics"
	tghelpers "github.com/mayak/orderbot/core/telegram/helpers"
)

// MessageMetricsMiddleware starts the per-update send tally and reports the
// update's kind, latency and outcome to Prometheus.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.StartTally(c)
		start := time.Now()
		err := next(c)
		metrics.ObserveUpdate(UpdateKind(c), time.Since(start), err)
		return err
	}
}
