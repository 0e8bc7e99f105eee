package telegram

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/mayak/orderbot/bot/conversation"
	tghelpers "github.com/mayak/orderbot/core/telegram/helpers"
	"github.com/mayak/orderbot/core/telegram/keyboard"
)

// Responder sends conversation replies to the chat of one update.
type Responder struct {
	c tele.Context
}

// NewResponder binds a Responder to c.
func NewResponder(c tele.Context) *Responder {
	return &Responder{c: c}
}

// Reply sends r as plain text with its keyboard.
func (r *Responder) Reply(_ context.Context, rep conversation.Reply) error {
	if markup := Markup(rep); markup != nil {
		return tghelpers.SendText(r.c, rep.Text, &tele.SendOptions{ReplyMarkup: markup})
	}
	return tghelpers.SendText(r.c, rep.Text)
}

// Markup renders the keyboard of rep, or nil when it has none.
func Markup(rep conversation.Reply) *tele.ReplyMarkup {
	switch rep.Markup {
	case conversation.MarkupMenu:
		return rep.Menu.Markup()
	case conversation.MarkupContactRequest:
		return keyboard.ContactRequest(conversation.LabelShareContact, conversation.CancelPhrase)
	case conversation.MarkupRemoveKeyboard:
		return keyboard.RemoveKeyboard()
	}
	return nil
}
