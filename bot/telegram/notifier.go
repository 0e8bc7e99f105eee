package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/mayak/orderbot/bot/domain"
	"github.com/mayak/orderbot/core/telegram/format"
	tghelpers "github.com/mayak/orderbot/core/telegram/helpers"
)

var serviceTitles = map[domain.ServiceKind]string{
	domain.ServiceProduct:    "Товар",
	domain.ServiceDiagnostic: "Диагностика",
	domain.ServiceRepair:     "Ремонт",
}

// OperatorNotifier posts every saved lead to the operators' chat.
// It stays silent until Bind gives it a bot, and when chatID is 0.
type OperatorNotifier struct {
	chatID int64
	api    atomic.Pointer[tele.API]
}

// NewOperatorNotifier returns a notifier for chatID.
func NewOperatorNotifier(chatID int64) *OperatorNotifier {
	return &OperatorNotifier{chatID: chatID}
}

// Bind sets the bot used for sending; the bot exists only once the runtime starts.
func (n *OperatorNotifier) Bind(api tele.API) {
	if api != nil {
		n.api.Store(&api)
	}
}

// NotifyLead sends a MarkdownV2 notice about rec.
func (n *OperatorNotifier) NotifyLead(ctx context.Context, rec domain.OrderRecord) error {
	if n == nil || n.chatID == 0 {
		return nil
	}
	api := n.api.Load()
	if api == nil {
		return errors.New("operator notifier: bot not bound")
	}
	return tghelpers.SendMDV2To(ctx, *api, n.chatID, LeadNotice(rec))
}

// LeadNotice renders rec as MarkdownV2.
func LeadNotice(rec domain.OrderRecord) string {
	service := serviceTitles[rec.Service]
	if service == "" {
		service = rec.Service.String()
	}
	var b strings.Builder
	b.WriteString("*Новая заявка*\n")
	fmt.Fprintf(&b, "Услуга: %s\n", format.MDV2(service))
	if rec.Service == domain.ServiceProduct || rec.Product != nil {
		fmt.Fprintf(&b, "Товар: %s\n", format.OptionalMDV2(rec.Product, "не указан"))
	}
	fmt.Fprintf(&b, "Клиент: %s\n", format.OptionalMDV2(&rec.CustomerName, "без имени"))
	fmt.Fprintf(&b, "Телефон: %s\n", format.MDV2(rec.Phone))
	fmt.Fprintf(&b, "Заявка: `%s`", format.MDV2(rec.ID))
	return b.String()
}
