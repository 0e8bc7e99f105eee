package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/mayak/orderbot/core/telegram"
	"github.com/mayak/orderbot/core/telegram/callbacks"
)

// CallbackRoute decodes callback tokens and routes them by action code.
// Malformed tokens and unknown codes go to the registry's not-found handler.
// The spinner is always answered first.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}
		_ = c.Respond()

		action, err := callbacks.FromContext(c)
		if err != nil {
			s := summary{handler: "callback.malformed", start: start, extras: []slog.Attr{slog.String("cause", "malformed")}}
			return s.run(c, func() error { return reg.CallbackNotFound()(c) })
		}

		name := "callback." + normalizeHandlerName(action.Code)
		extras := []slog.Attr{slog.String("cb_key", action.Code)}
		h, ok := reg.GetCallback(action.Code)
		if !ok {
			s := summary{handler: name, start: start, extras: append(extras, slog.String("cause", "not_found"))}
			return s.run(c, func() error { return reg.CallbackNotFound()(c) })
		}
		return summary{handler: name, start: start, extras: extras}.run(c, func() error { return h(c) })
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
