package conversation

import (
	"context"
	"strings"

	"github.com/mayak/orderbot/core/telegram/keyboard"
)

// EventKind tells what kind of update an Event came from.
type EventKind int

const (
	EventText EventKind = iota + 1
	EventContact
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventContact:
		return "contact"
	case EventCallback:
		return "callback"
	}
	return "unknown"
}

// Contact is a shared phone contact.
type Contact struct {
	FirstName string
	LastName  string
	Phone     string
	UserID    int64
}

// Name joins first and last name.
func (c Contact) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Event is a normalized inbound update.
type Event struct {
	ChatID  int64
	Kind    EventKind
	Text    string
	Contact *Contact
	// Token is the raw callback data of a button tap.
	Token string
}

// Markup selects the keyboard attached to a reply.
type Markup int

const (
	MarkupNone Markup = iota
	MarkupMenu
	MarkupContactRequest
	MarkupRemoveKeyboard
)

// Reply is one outbound message.
type Reply struct {
	Text   string
	Markup Markup
	// Menu is set for MarkupMenu; it may have zero rows.
	Menu keyboard.Menu
}

// Responder delivers replies to the chat an event came from.
type Responder interface {
	Reply(ctx context.Context, r Reply) error
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, r Reply) error

// Reply calls f.
func (f ResponderFunc) Reply(ctx context.Context, r Reply) error { return f(ctx, r) }
