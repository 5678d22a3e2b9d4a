package models

import (
	"time"

	"github.com/diewo77/fakti/internal/billing"
	"github.com/shopspring/decimal"
)

// Invoice represents a billing invoice.
// Implements the Ownable interface for ownership-based authorization.
//
// Subtotal, TaxAmount, DiscountAmount and Total are outputs of the
// recalculation and are only written by the invoice service.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this invoice (for multi-tenant isolation)
	UserID uint  `gorm:"index;not null" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"client,omitempty"`

	// Not unique: duplicates are accepted.
	InvoiceNumber string `gorm:"size:50;index" json:"invoice_number"`

	IssueDate time.Time        `gorm:"type:date;not null" json:"issue_date"`
	DueDate   time.Time        `gorm:"type:date;not null" json:"due_date"`
	Status    billing.Status   `gorm:"size:20;not null;default:draft;index" json:"status"`
	Currency  billing.Currency `gorm:"size:3;not null;default:HTG" json:"currency"`
	Notes     string           `gorm:"type:text" json:"notes,omitempty"`

	TaxPercent      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"tax_percent"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	IsOverdue bool `gorm:"-" json:"is_overdue"`
}

// GetUserID implements the Ownable interface for authorization.
func (i *Invoice) GetUserID() uint {
	return i.UserID
}

// Totals returns the stored monetary fields.
func (i *Invoice) Totals() billing.Totals {
	return billing.Totals{
		Subtotal:       i.Subtotal,
		TaxAmount:      i.TaxAmount,
		DiscountAmount: i.DiscountAmount,
		Total:          i.Total,
	}
}

// SetTotals copies recalculated amounts onto the invoice.
func (i *Invoice) SetTotals(t billing.Totals) {
	i.Subtotal = t.Subtotal
	i.TaxAmount = t.TaxAmount
	i.DiscountAmount = t.DiscountAmount
	i.Total = t.Total
}

// Lines returns the billing view of the loaded items.
func (i *Invoice) Lines() []billing.Line {
	return ItemLines(i.Items)
}

// RefreshOverdue sets IsOverdue for the calendar day of now.
func (i *Invoice) RefreshOverdue(now time.Time) {
	i.IsOverdue = billing.IsOverdue(i.Status, i.DueDate, now)
}

// InvoiceItem represents a line item on an invoice.
type InvoiceItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	InvoiceID uint `gorm:"index;not null" json:"invoice_id"`

	Description string          `gorm:"size:255;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"line_total"`
}

// ComputeLineTotal refreshes LineTotal from quantity and unit price.
// Called before every item write.
func (it *InvoiceItem) ComputeLineTotal() {
	it.LineTotal = billing.LineTotal(it.Quantity, it.UnitPrice)
}

// ItemLines converts items to billing lines.
func ItemLines(items []InvoiceItem) []billing.Line {
	lines := make([]billing.Line, len(items))
	for n, it := range items {
		lines[n] = billing.Line{Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return lines
}

// All returns every persisted model in dependency order, for AutoMigrate.
func All() []any {
	return []any{&User{}, &Client{}, &Invoice{}, &InvoiceItem{}}
}
