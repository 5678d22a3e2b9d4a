// Package billing holds the invoice arithmetic: line totals, invoice totals,
// the consistency guard and overdue detection. It has no persistence
// dependencies so every rule here can be tested with plain values.
package billing

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places stored for monetary columns.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// Line is the minimal view of a line item needed to compute totals.
type Line struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// LineTotal returns quantity * unit price rounded to cents.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(MoneyPlaces)
}

// Totals are the four derived monetary fields of an invoice.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// Zero returns totals for an invoice without line items.
func Zero() Totals {
	return Totals{
		Subtotal:       decimal.Zero,
		TaxAmount:      decimal.Zero,
		DiscountAmount: decimal.Zero,
		Total:          decimal.Zero,
	}
}

// Equal reports whether both totals carry the same amounts.
func (t Totals) Equal(o Totals) bool {
	return t.Subtotal.Equal(o.Subtotal) &&
		t.TaxAmount.Equal(o.TaxAmount) &&
		t.DiscountAmount.Equal(o.DiscountAmount) &&
		t.Total.Equal(o.Total)
}

// Recalculate derives subtotal, tax, discount and total from the line items
// and the two percentages. A zero percentage yields a zero amount.
//
// total = subtotal + tax_amount - discount_amount always holds on the result.
func Recalculate(taxPercent, discountPercent decimal.Decimal, lines []Line) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineTotal(l.Quantity, l.UnitPrice))
	}

	tax := decimal.Zero
	if !taxPercent.IsZero() {
		tax = subtotal.Mul(taxPercent).Div(hundred).Round(MoneyPlaces)
	}
	discount := decimal.Zero
	if !discountPercent.IsZero() {
		discount = subtotal.Mul(discountPercent).Div(hundred).Round(MoneyPlaces)
	}

	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		Total:          subtotal.Add(tax).Sub(discount),
	}
}
