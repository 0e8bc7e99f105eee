package helpers

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const tallySlot = "orderbot.tally"

// SendTally counts the messages queued while one update is handled.
type SendTally struct {
	messages atomic.Int32
	keyboard atomic.Bool
}

// StartTally attaches a fresh tally to c, replacing any earlier one.
func StartTally(c tele.Context) *SendTally {
	t := &SendTally{}
	c.Set(tallySlot, t)
	return t
}

// Tally reports how many messages were queued for c and whether any carried a keyboard.
func Tally(c tele.Context) (messages int, keyboard bool) {
	t, _ := c.Get(tallySlot).(*SendTally)
	if t == nil {
		return 0, false
	}
	return int(t.messages.Load()), t.keyboard.Load()
}

func countSend(c tele.Context, opts *tele.SendOptions) {
	t, _ := c.Get(tallySlot).(*SendTally)
	if t == nil {
		return
	}
	t.messages.Add(1)
	if opts != nil && opts.ReplyMarkup != nil {
		t.keyboard.Store(true)
	}
}
