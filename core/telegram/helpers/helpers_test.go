package helpers

import (
	"context"
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/mayak/orderbot/core/logger"
	"github.com/mayak/orderbot/core/telegram/sender"
)

func testContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return b.NewContext(upd)
}

func TestBuildContextIsCachedPerUpdate(t *testing.T) {
	c := testContext(t, tele.Update{ID: 3, Message: &tele.Message{
		Chat:   &tele.Chat{ID: 10},
		Sender: &tele.User{ID: 20},
	}})
	ctx := BuildContext(c)
	if logger.RIDFrom(ctx) != "3:10:20" || logger.ChatIDFrom(ctx) != 10 || logger.UserIDFrom(ctx) != 20 {
		t.Fatalf("unexpected ids in context: rid=%q", logger.RIDFrom(ctx))
	}
	if again := BuildContext(c); again != ctx {
		t.Fatal("context rebuilt for the same update")
	}
	tagged := WithHandler(c, "start")
	if logger.HandlerFrom(tagged) != "start" {
		t.Fatalf("handler = %q", logger.HandlerFrom(tagged))
	}
	if stored, _ := ContextFrom(c); stored != tagged {
		t.Fatal("tagged context not stored")
	}
}

func TestTallyCountsSends(t *testing.T) {
	c := testContext(t, tele.Update{Message: &tele.Message{Chat: &tele.Chat{ID: 1}}})
	countSend(c, nil)
	if n, _ := Tally(c); n != 0 {
		t.Fatalf("counted without a tally: %d", n)
	}
	StartTally(c)
	countSend(c, nil)
	countSend(c, &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{RemoveKeyboard: true}})
	n, kb := Tally(c)
	if n != 2 || !kb {
		t.Fatalf("tally = %d, %v", n, kb)
	}
}

func TestSendAsyncDoesNotOvertakeFullChatQueue(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1, QueueSize: 1, EnqueueWait: 10 * time.Millisecond})
	SetDispatcher(d)
	defer func() {
		SetDispatcher(nil)
		d.Close()
	}()

	release := make(chan struct{})
	started := make(chan struct{})
	ctx := logger.WithChatID(context.Background(), 55)
	if err := sendAsync(ctx, "a", "", func() error { close(started); <-release; return nil }); err != nil {
		t.Fatalf("a: %v", err)
	}
	<-started
	if err := sendAsync(ctx, "b", "", func() error { return nil }); err != nil {
		t.Fatalf("b: %v", err)
	}

	ranInline := false
	err := sendAsync(ctx, "c", "", func() error { ranInline = true; return nil })
	if !errors.Is(err, sender.ErrQueueFull) || ranInline {
		t.Fatalf("err = %v, inline = %v; want ErrQueueFull without an inline send", err, ranInline)
	}

	ranInline = false
	if err := sendAsync(context.Background(), "d", "", func() error { ranInline = true; return nil }); err != nil || !ranInline {
		t.Fatalf("chat-less job: err = %v, inline = %v", err, ranInline)
	}
	close(release)
}
