package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InconsistentStateError reports stored invoice amounts that do not match the
// values recomputed from its line items. It means the recalculation contract
// was bypassed somewhere and must never be corrected silently.
type InconsistentStateError struct {
	InvoiceID uint
	Stored    Totals
	Expected  Totals
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf(
		"invoice %d: inconsistent totals (stored subtotal=%s tax=%s discount=%s total=%s, expected subtotal=%s tax=%s discount=%s total=%s)",
		e.InvoiceID,
		e.Stored.Subtotal, e.Stored.TaxAmount, e.Stored.DiscountAmount, e.Stored.Total,
		e.Expected.Subtotal, e.Expected.TaxAmount, e.Expected.DiscountAmount, e.Expected.Total,
	)
}

// CheckConsistency recomputes the totals and compares them with the stored ones.
func CheckConsistency(invoiceID uint, stored Totals, taxPercent, discountPercent decimal.Decimal, lines []Line) error {
	expected := Recalculate(taxPercent, discountPercent, lines)
	if !stored.Equal(expected) {
		return &InconsistentStateError{InvoiceID: invoiceID, Stored: stored, Expected: expected}
	}
	if !stored.Total.Equal(stored.Subtotal.Add(stored.TaxAmount).Sub(stored.DiscountAmount)) {
		return &InconsistentStateError{InvoiceID: invoiceID, Stored: stored, Expected: expected}
	}
	return nil
}
