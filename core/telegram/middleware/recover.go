package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/mayak/orderbot/core/logger"
	"github.com/mayak/orderbot/core/metrics"
	tghelpers "github.com/mayak/orderbot/core/telegram/helpers"
)

// RecoverMiddleware turns a handler panic into a logged error.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				metrics.IncPanic()
				logger.Error(tghelpers.BuildContext(c), "tg", "tg.panic",
					slog.String("outcome", "recovered"),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		return next(c)
	}
}
