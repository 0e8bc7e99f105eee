// Package telegram connects the conversation router to telebot: it turns
// updates into conversation events and replies into messages.
package telegram

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/mayak/orderbot/bot/conversation"
	coretelegram "github.com/mayak/orderbot/core/telegram"
	"github.com/mayak/orderbot/core/telegram/callbacks"
	tghelpers "github.com/mayak/orderbot/core/telegram/helpers"
	tgrouter "github.com/mayak/orderbot/core/telegram/router"
)

// Conversation handles one normalized event.
type Conversation interface {
	Handle(ctx context.Context, ev conversation.Event, out conversation.Responder) error
}

// Handler feeds telebot updates to a conversation.
type Handler struct {
	conv Conversation
}

// NewHandler wraps conv.
func NewHandler(conv Conversation) *Handler {
	return &Handler{conv: conv}
}

// Register binds commands, callback codes, free text and contacts in reg.
func (h *Handler) Register(reg *coretelegram.Registry) error {
	for _, cmd := range []struct{ name, desc string }{
		{conversation.CommandStart, conversation.DescriptionStart},
		{conversation.CommandHelp, conversation.DescriptionHelp},
		{conversation.CommandContacts, conversation.DescriptionContacts},
	} {
		reg.RegisterCommand(cmd.name, coretelegram.Command{Description: cmd.desc, Handler: h.onText})
	}
	for _, code := range conversation.ActionCodes() {
		if err := reg.RegisterCallback(code, h.onCallback); err != nil {
			return fmt.Errorf("register callback %s: %w", code, err)
		}
	}
	// the router answers unknown and malformed taps itself
	reg.SetCallbackNotFound(h.onCallback)
	reg.SetTextFallback(h.onText)
	reg.SetContactHandler(h.onContact)
	return nil
}

// Routes returns every route of reg.
func Routes(reg *coretelegram.Registry) []coretelegram.Route {
	routes := tgrouter.CommandRoutes(reg)
	routes = append(routes, tgrouter.MessageRoutes(reg)...)
	return append(routes, tgrouter.CallbackRoute(reg))
}

func (h *Handler) onText(c tele.Context) error {
	return h.handle(c, conversation.Event{Kind: conversation.EventText, Text: c.Text()})
}

func (h *Handler) onCallback(c tele.Context) error {
	return h.handle(c, conversation.Event{Kind: conversation.EventCallback, Token: callbacks.RawData(c.Callback())})
}

func (h *Handler) onContact(c tele.Context) error {
	ev := conversation.Event{Kind: conversation.EventContact}
	if msg := c.Message(); msg != nil && msg.Contact != nil {
		ev.Contact = &conversation.Contact{
			FirstName: msg.Contact.FirstName,
			LastName:  msg.Contact.LastName,
			Phone:     msg.Contact.PhoneNumber,
			UserID:    msg.Contact.UserID,
		}
	}
	return h.handle(c, ev)
}

func (h *Handler) handle(c tele.Context, ev conversation.Event) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ev.ChatID = chat.ID
	return h.conv.Handle(tghelpers.BuildContext(c), ev, NewResponder(c))
}
