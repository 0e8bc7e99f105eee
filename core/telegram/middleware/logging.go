package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/mayak/orderbot/core/logger"
	"github.com/mayak/orderbot/core/telegram/callbacks"
	tghelpers "github.com/mayak/orderbot/core/telegram/helpers"
)

// recentUpdates keeps processed update ids for a short while so an update
// routed through several wrapped handlers is logged once.
var (
	recentMu     sync.Mutex
	recentUpdate = make(map[int]time.Time)
	keepFor      = 10 * time.Second
)

func alreadyLogged(updateID int) bool {
	now := time.Now()
	recentMu.Lock()
	defer recentMu.Unlock()
	for id, ts := range recentUpdate {
		if now.Sub(ts) > keepFor {
			delete(recentUpdate, id)
		}
	}
	if _, ok := recentUpdate[updateID]; ok {
		return true
	}
	recentUpdate[updateID] = now
	return false
}

// UpdateKind names the inbound event for logs and metrics.
func UpdateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil && upd.Message.Contact != nil:
		return "contact"
	case upd.Message != nil && len(upd.Message.Text) > 0 && upd.Message.Text[0] == '/':
		return "command"
	case upd.Message != nil:
		return "text"
	}
	return "other"
}

// LoggerMiddleware builds the update context and logs one
// sampled receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		chat, user := c.Chat(), c.Sender()
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebug() && !alreadyLogged(upd.ID) {
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("kind", UpdateKind(c)),
			}
			if chat != nil {
				attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
			}
			if user != nil && user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
			switch {
			case upd.Callback != nil:
				raw := callbacks.RawData(upd.Callback)
				if a, err := callbacks.Decode(raw); err == nil {
					attrs = append(attrs,
						slog.String("cb_key", logger.SanitizeLimit(a.Code, 64)),
						slog.String("payload", logger.SanitizeLimit(a.Payload, 128)),
					)
				} else {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(raw, 128)))
				}
			case upd.Message != nil && upd.Message.Contact != nil:
				attrs = append(attrs, slog.String("phone", logger.MaskPhone(upd.Message.Contact.PhoneNumber)))
			case upd.Message != nil:
				if t := c.Text(); t != "" {
					attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
				}
			}
			logger.Emit(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		}

		return next(c)
	}
}
