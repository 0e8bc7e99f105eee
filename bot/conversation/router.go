// Package conversation is the ordering state machine: it reads an inbound
// event against the chat's order state, talks to the catalog and the order
// sink, and answers with texts and button menus.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mayak/orderbot/bot/domain"
	"github.com/mayak/orderbot/core/logger"
	"github.com/mayak/orderbot/core/telegram/callbacks"
	"github.com/mayak/orderbot/core/telegram/state"
)

// Catalog lists categories and products.
type Catalog interface {
	ListCategories(ctx context.Context, f domain.CategoryFilter) ([]domain.Category, error)
	ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
}

// OrderSink persists leads.
type OrderSink interface {
	SaveOrder(ctx context.Context, rec domain.OrderRecord) error
}

// Notifier hands a saved lead over to an operator.
type Notifier interface {
	NotifyLead(ctx context.Context, rec domain.OrderRecord) error
}

// Options configures a Router.
type Options struct {
	Store   state.Store[domain.OrderState]
	Catalog Catalog
	Orders  OrderSink
	// Notifier is optional.
	Notifier Notifier

	NewLeadID func() string
	Now       func() time.Time
}

// Router runs the conversation for every chat.
type Router struct {
	store    state.Store[domain.OrderState]
	catalog  Catalog
	orders   OrderSink
	notifier Notifier

	newLeadID func() string
	now       func() time.Time
}

// New validates opts and returns a Router.
func New(opts Options) (*Router, error) {
	if opts.Store == nil || opts.Catalog == nil || opts.Orders == nil {
		return nil, errors.New("conversation: store, catalog and orders are required")
	}
	r := &Router{
		store:     opts.Store,
		catalog:   opts.Catalog,
		orders:    opts.Orders,
		notifier:  opts.Notifier,
		newLeadID: opts.NewLeadID,
		now:       opts.Now,
	}
	if r.newLeadID == nil {
		r.newLeadID = uuid.NewString
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// outcome is what one event did, before replies are sent.
type outcome struct {
	action  string
	replies []Reply
	// err is a failure already answered with an apology.
	err error
}

func reply(text string) Reply { return Reply{Text: text} }

func defaultError(action string) outcome {
	return outcome{action: action, replies: []Reply{reply(TextDefaultError)}}
}

// Handle processes ev under the chat's lock and sends the replies through out.
// Failures of the catalog or the order sink are answered with an apology and
// do not surface as errors; store and send failures do. A store failure gets
// the temporary-failure text only when nothing was sent yet.
func (r *Router) Handle(ctx context.Context, ev Event, out Responder) error {
	start := time.Now()
	ctx = logger.WithChatID(ctx, ev.ChatID)

	var (
		sendErr error
		sent    int
	)
	err := r.store.Update(ctx, ev.ChatID, func(st *domain.OrderState) error {
		from := phase(*st)
		res := r.dispatch(ctx, ev, st)
		r.logTransition(ctx, ev, res, from, phase(*st), start)
		for _, rep := range res.replies {
			if sendErr = out.Reply(ctx, rep); sendErr != nil {
				break
			}
			sent++
		}
		// the transition stands even if a reply was lost
		return nil
	})
	if err != nil {
		logger.Conv.LogAttrs(ctx, slog.LevelError, "state.update",
			slog.String("event", "state.update"),
			slog.String("status", "fail"),
			slog.String("kind", ev.Kind.String()),
			slog.String("err", err.Error()),
			slog.Int("messages", sent),
		)
		// the user already has an answer when the failure came after the replies
		if sent == 0 {
			_ = out.Reply(ctx, reply(TextTemporaryFailure))
		}
		return fmt.Errorf("conversation: chat %d: %w", ev.ChatID, err)
	}
	if sendErr != nil {
		return fmt.Errorf("conversation: reply to chat %d: %w", ev.ChatID, sendErr)
	}
	return nil
}

func (r *Router) dispatch(ctx context.Context, ev Event, st *domain.OrderState) outcome {
	switch ev.Kind {
	case EventText:
		return r.onText(ev.Text, st)
	case EventCallback:
		return r.onCallback(ctx, ev.Token, st)
	case EventContact:
		return r.onContact(ctx, ev, st)
	}
	return defaultError("")
}

func (r *Router) onText(text string, st *domain.OrderState) outcome {
	text = strings.TrimSpace(text)
	if text == CancelPhrase {
		st.Reset()
		return outcome{action: "cancel", replies: []Reply{{Text: TextCancelled, Markup: MarkupRemoveKeyboard}}}
	}
	switch commandName(text) {
	case CommandStart:
		st.Reset()
		return outcome{action: "start", replies: []Reply{{Text: TextWelcome, Markup: MarkupMenu, Menu: mainMenu}}}
	case CommandHelp:
		return outcome{action: "help", replies: []Reply{reply(TextHelp)}}
	case CommandContacts:
		return outcome{action: "contacts", replies: []Reply{reply(TextContacts)}}
	}
	return defaultError("text")
}

// commandName returns "/cmd" for "/cmd@bot args", or "" when text is not a command.
func commandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name)
}

func (r *Router) onCallback(ctx context.Context, token string, st *domain.OrderState) outcome {
	act, err := callbacks.Decode(token)
	if err != nil {
		res := defaultError("malformed")
		res.err = err
		return res
	}
	kind := ParseAction(act.Code)
	switch kind {
	case ActionProducts:
		return r.showCategories(ctx)
	case ActionService:
		return outcome{action: kind.String(), replies: []Reply{{Text: TextChooseService, Markup: MarkupMenu, Menu: serviceMenu}}}
	case ActionCategory:
		if act.Payload == "" {
			return defaultError(kind.String())
		}
		return r.showProducts(ctx, act.Payload)
	case ActionProduct, ActionDiagnostic, ActionRepair:
		return r.selectLeaf(kind, act.Payload, st)
	default:
		return defaultError("unknown")
	}
}

func (r *Router) showCategories(ctx context.Context) outcome {
	const action = "products"
	cats, err := r.catalog.ListCategories(ctx, domain.CategoryFilter{})
	if err != nil {
		return catalogFailure(action, err)
	}
	menu, err := categoryMenu(cats)
	if err != nil {
		return catalogFailure(action, err)
	}
	return outcome{action: action, replies: []Reply{{Text: TextChooseCategory, Markup: MarkupMenu, Menu: menu}}}
}

func (r *Router) showProducts(ctx context.Context, category string) outcome {
	const action = "category"
	products, err := r.catalog.ListProducts(ctx, domain.ProductFilter{Category: category})
	if err != nil {
		return catalogFailure(action, err)
	}
	menu, err := productMenu(products)
	if err != nil {
		return catalogFailure(action, err)
	}
	return outcome{action: action, replies: []Reply{{
		Text:   fmt.Sprintf(TextProductsFound, len(products)),
		Markup: MarkupMenu,
		Menu:   menu,
	}}}
}

func catalogFailure(action string, err error) outcome {
	catalogErrorsTotal.WithLabelValues(action).Inc()
	return outcome{action: action, replies: []Reply{reply(TextCatalogUnavailable)}, err: err}
}

func (r *Router) selectLeaf(kind ActionKind, payload string, st *domain.OrderState) outcome {
	service, _ := kind.Service()
	if service == domain.ServiceProduct && payload == "" {
		return defaultError(kind.String())
	}
	st.Service = service
	st.Product = nil
	if payload != "" {
		p := payload
		st.Product = &p
	}
	st.LeadID = r.newLeadID()
	return outcome{action: kind.String(), replies: []Reply{{Text: TextRequestPhone, Markup: MarkupContactRequest}}}
}

func (r *Router) onContact(ctx context.Context, ev Event, st *domain.OrderState) outcome {
	const action = "contact"
	if ev.Contact == nil || strings.TrimSpace(ev.Contact.Phone) == "" || !st.AwaitingPhone() {
		return defaultError(action)
	}
	if st.LeadID == "" {
		st.LeadID = r.newLeadID()
	}
	rec := domain.OrderRecord{
		ID:           st.LeadID,
		ChatID:       ev.ChatID,
		CustomerName: ev.Contact.Name(),
		Phone:        strings.TrimSpace(ev.Contact.Phone),
		Service:      st.Service,
		Product:      st.Product,
		CreatedAt:    r.now(),
	}
	if err := r.orders.SaveOrder(ctx, rec); err != nil {
		var perr *domain.PersistenceError
		if !errors.As(err, &perr) {
			err = &domain.PersistenceError{LeadID: rec.ID, Err: err}
		}
		leadsTotal.WithLabelValues(rec.Service.String(), "failed").Inc()
		// state and lead id stay, so sharing the contact again retries the same lead
		return outcome{action: action, replies: []Reply{{Text: TextSaveFailed, Markup: MarkupContactRequest}}, err: err}
	}
	leadsTotal.WithLabelValues(rec.Service.String(), "saved").Inc()
	st.Reset()
	r.notify(ctx, rec)
	return outcome{action: action, replies: []Reply{{Text: TextThanks, Markup: MarkupRemoveKeyboard}}}
}

func (r *Router) notify(ctx context.Context, rec domain.OrderRecord) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.NotifyLead(ctx, rec); err != nil {
		logger.Orders.LogAttrs(ctx, slog.LevelWarn, "lead.notify",
			slog.String("event", "lead.notify"),
			slog.String("status", "fail"),
			slog.String("lead_id", rec.ID),
			slog.String("err", err.Error()),
		)
	}
}

// phase names the state for logs.
func phase(st domain.OrderState) string {
	if st.AwaitingPhone() {
		return "awaiting_phone"
	}
	return "idle"
}

func (r *Router) logTransition(ctx context.Context, ev Event, res outcome, from, to string, start time.Time) {
	eventsTotal.WithLabelValues(ev.Kind.String(), res.action).Inc()

	attrs := []slog.Attr{
		slog.String("event", "transition"),
		slog.String("status", logger.Status(res.err)),
		slog.String("kind", ev.Kind.String()),
		slog.String("action", res.action),
		slog.String("from_state", from),
		slog.String("to_state", to),
		slog.Duration("duration", logger.Took(start)),
	}
	level := slog.LevelInfo
	if res.err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(res.err.Error(), 256)),
			slog.String("err_code", errorCode(res.err)),
		)
	}
	logger.Conv.LogAttrs(ctx, level, "transition", attrs...)
}

func errorCode(err error) string {
	var c interface{ Code() string }
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}
