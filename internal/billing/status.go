package billing

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusPaid     Status = "paid"
	StatusOverdue  Status = "overdue"
	StatusCanceled Status = "canceled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCanceled}

// IsValid checks if the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCanceled:
		return true
	}
	return false
}

// Currency of an invoice. Amounts are never converted between currencies.
type Currency string

const (
	CurrencyHTG Currency = "HTG"
	CurrencyUSD Currency = "USD"
)

// IsValid checks if the currency is supported.
func (c Currency) IsValid() bool {
	return c == CurrencyHTG || c == CurrencyUSD
}

// IsOverdue reports whether an invoice with the given status and due date is
// overdue on the calendar day of now. dueDate is a stored date (UTC midnight)
// whatever zone the driver returns it in; today is taken in now's location.
func IsOverdue(status Status, dueDate, now time.Time) bool {
	if status == StatusPaid {
		return false
	}
	return Day(dueDate.UTC()).Before(Day(now))
}

// Day returns the calendar day of t, read in t's own location, as UTC
// midnight. Invoice dates are stored and compared in this form.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InvoiceNumber formats the suggested number for the n-th invoice of a year,
// e.g. INV-2025-00007. It is a suggestion, not a unique key.
func InvoiceNumber(year int, n int64) string {
	return fmt.Sprintf("INV-%d-%05d", year, n)
}
