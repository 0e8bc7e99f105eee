package telegram

import "github.com/mayak/orderbot/core/telegram/middleware"

// DefaultMiddlewares builds the shared middleware chain: panic recovery first,
// then per-update logging context and send counters.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
}
