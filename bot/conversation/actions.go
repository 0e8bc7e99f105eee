package conversation

import (
	"fmt"

	"github.com/mayak/orderbot/bot/domain"
	"github.com/mayak/orderbot/core/telegram/callbacks"
)

// ActionKind is a decoded callback action code.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionProducts
	ActionService
	ActionCategory
	ActionProduct
	ActionDiagnostic
	ActionRepair
)

var actionCodes = [...]string{
	ActionUnknown:    "",
	ActionProducts:   "products",
	ActionService:    "service",
	ActionCategory:   "category",
	ActionProduct:    "product",
	ActionDiagnostic: "diagnostic",
	ActionRepair:     "repair",
}

// ParseAction maps a wire code to its kind; unknown codes give ActionUnknown.
func ParseAction(code string) ActionKind {
	for i, c := range actionCodes {
		if i > 0 && c == code {
			return ActionKind(i)
		}
	}
	return ActionUnknown
}

// Code returns the wire code.
func (a ActionKind) Code() string {
	if a <= ActionUnknown || int(a) >= len(actionCodes) {
		return ""
	}
	return actionCodes[a]
}

func (a ActionKind) String() string {
	if c := a.Code(); c != "" {
		return c
	}
	return "unknown"
}

// Service reports the service a leaf action selects.
func (a ActionKind) Service() (domain.ServiceKind, bool) {
	switch a {
	case ActionProduct:
		return domain.ServiceProduct, true
	case ActionDiagnostic:
		return domain.ServiceDiagnostic, true
	case ActionRepair:
		return domain.ServiceRepair, true
	}
	return domain.ServiceNone, false
}

// ActionCodes lists every known wire code.
func ActionCodes() []string {
	return append([]string(nil), actionCodes[1:]...)
}

// CheckCatalogTokens verifies that the buttons for c and its products fit
// into callback data. It is run on the catalog before it is seeded.
func CheckCatalogTokens(c domain.Category, products []domain.Product) error {
	if _, err := callbacks.Encode(ActionCategory.Code(), c.Code); err != nil {
		return fmt.Errorf("category button: %w", err)
	}
	for _, p := range products {
		if _, err := callbacks.Encode(ActionProduct.Code(), p.Title); err != nil {
			return fmt.Errorf("product %q button: %w", p.Title, err)
		}
	}
	return nil
}
