package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/mayak/orderbot/core/logger"
	"github.com/mayak/orderbot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// sendAsync hands run to the dispatcher. When the dispatcher is closed, or a
// job without a chat cannot be queued, run executes inline. A chat whose
// shard stays full gets ErrQueueFull instead, so no reply overtakes the
// ones already queued for it.
func sendAsync(ctx context.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}
	err := disp.Enqueue(ctx, action, endpoint, run)
	if err == nil {
		return nil
	}
	inline := errors.Is(err, sender.ErrQueueClosed) ||
		(errors.Is(err, sender.ErrQueueFull) && logger.ChatIDFrom(ctx) == 0)
	attrs := []slog.Attr{
		slog.String("action", action),
		slog.String("endpoint", endpoint),
		slog.String("err", err.Error()),
	}
	if !inline {
		logger.Error(ctx, "tg.sender", "queue.rejected", attrs...)
		return err
	}
	logger.Warn(ctx, "tg.sender", "queue.fallback", attrs...)
	return run()
}

// SendText sends raw text (no parse mode) to the current chat.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	err := sendAsync(BuildContext(c), "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
	if err == nil {
		countSend(c, sendOpts)
	}
	return err
}

// SendTo sends text to an arbitrary chat, outside any update.
func SendTo(ctx context.Context, api tele.API, chatID int64, text string, opts *tele.SendOptions) error {
	ctx = logger.WithChatID(ctx, chatID)
	return sendAsync(ctx, "send.to", "sendMessage", func() error {
		var err error
		if opts != nil {
			_, err = api.Send(tele.ChatID(chatID), text, opts)
		} else {
			_, err = api.Send(tele.ChatID(chatID), text)
		}
		return err
	})
}

// SendMDV2To is SendTo with MarkdownV2 parse mode.
func SendMDV2To(ctx context.Context, api tele.API, chatID int64, text string) error {
	return SendTo(ctx, api, chatID, text, &tele.SendOptions{ParseMode: tele.ModeMarkdownV2})
}
