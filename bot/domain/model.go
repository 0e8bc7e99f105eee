package domain

import "time"

// Category groups products in the catalog.
type Category struct {
	Code     string `db:"code" yaml:"code"`
	Title    string `db:"title" yaml:"title"`
	Position int    `db:"position" yaml:"position"`
}

// Product is a catalog item; its title is unique within the category.
type Product struct {
	Category string `db:"category" yaml:"-"`
	Title    string `db:"title" yaml:"title"`
	Position int    `db:"position" yaml:"position"`
}

// CategoryFilter narrows ListCategories. The zero value lists everything.
type CategoryFilter struct {
	Code string
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	Category string
}

// OrderRecord is a persisted lead.
type OrderRecord struct {
	ID           string      `db:"id"`
	ChatID       int64       `db:"chat_id"`
	CustomerName string      `db:"customer_name"`
	Phone        string      `db:"phone"`
	Service      ServiceKind `db:"service"`
	Product      *string     `db:"product"`
	CreatedAt    time.Time   `db:"created_at"`
}

// OrderState is the in-progress order of one chat.
// The zero value is the idle state.
type OrderState struct {
	Service ServiceKind `json:"service"`
	Product *string     `json:"product,omitempty"`
	// LeadID is minted on leaf selection and reused if saving the lead is retried.
	LeadID string `json:"lead_id,omitempty"`
}

// IsZero reports the idle state.
func (s OrderState) IsZero() bool {
	return s.Service == ServiceNone && s.Product == nil && s.LeadID == ""
}

// Reset returns the state to idle.
func (s *OrderState) Reset() {
	*s = OrderState{}
}

// AwaitingPhone reports whether a leaf was selected and the contact is still missing.
func (s OrderState) AwaitingPhone() bool {
	return s.Service != ServiceNone
}
