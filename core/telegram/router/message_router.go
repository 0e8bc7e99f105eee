package router

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/mayak/orderbot/core/telegram"
)

// MessageRoutes handles plain text and shared contacts. Text that spells a
// registered command is dispatched to it; anything else goes to the text fallback.
func MessageRoutes(reg *tg.Registry) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		if msg := c.Text(); strings.HasPrefix(msg, "/") {
			if key, cmd, ok := reg.LookupCommand(msg); ok && cmd.Handler != nil {
				return summary{handler: normalizeHandlerName(key), start: start}.run(c, func() error { return cmd.Handler(c) })
			}
		}
		if fb := reg.TextFallback(); fb != nil {
			return summary{handler: "text", start: start}.run(c, func() error { return fb(c) })
		}
		summary{handler: "text", start: start, status: "skip"}.log(c, nil)
		return nil
	}

	contact := func(c tele.Context) error {
		start := time.Now()
		if h := reg.ContactHandler(); h != nil {
			return summary{handler: "contact", start: start}.run(c, func() error { return h(c) })
		}
		summary{handler: "contact", start: start, status: "skip"}.log(c, nil)
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: text},
		{Endpoint: tele.OnContact, Handler: contact},
	}
}
