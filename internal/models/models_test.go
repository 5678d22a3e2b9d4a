package models

import (
	"testing"
	"time"

	"github.com/diewo77/fakti/internal/billing"
	"github.com/shopspring/decimal"
)

func TestClient_GetUserID(t *testing.T) {
	client := &Client{UserID: 123}
	if got := client.GetUserID(); got != 123 {
		t.Errorf("GetUserID() = %d, want 123", got)
	}
}

func TestClient_FullAddress(t *testing.T) {
	tests := []struct {
		name   string
		client Client
		want   string
	}{
		{
			name:   "full address",
			client: Client{Address: "12 Rue Capois", City: "Port-au-Prince", Country: "Haiti"},
			want:   "12 Rue Capois, Port-au-Prince, Haiti",
		},
		{
			name:   "only city",
			client: Client{City: "Jacmel"},
			want:   "Jacmel",
		},
		{
			name:   "address and country",
			client: Client{Address: "5 Ave John Brown", Country: "Haiti"},
			want:   "5 Ave John Brown, Haiti",
		},
		{
			name:   "blank parts skipped",
			client: Client{Address: "  ", City: "Cap-Haïtien"},
			want:   "Cap-Haïtien",
		},
		{
			name:   "empty",
			client: Client{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.client.FullAddress(); got != tt.want {
				t.Errorf("FullAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvoice_GetUserID(t *testing.T) {
	invoice := &Invoice{UserID: 456}
	if got := invoice.GetUserID(); got != 456 {
		t.Errorf("GetUserID() = %d, want 456", got)
	}
}

func TestInvoice_TotalsRoundTrip(t *testing.T) {
	inv := &Invoice{}
	want := billing.Totals{
		Subtotal:       decimal.NewFromInt(100),
		TaxAmount:      decimal.NewFromInt(10),
		DiscountAmount: decimal.NewFromInt(5),
		Total:          decimal.NewFromInt(105),
	}
	inv.SetTotals(want)
	if !inv.Totals().Equal(want) {
		t.Errorf("Totals() = %+v, want %+v", inv.Totals(), want)
	}
}

func TestInvoice_RefreshOverdue(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		status billing.Status
		due    time.Time
		want   bool
	}{
		{"sent past due", billing.StatusSent, now.AddDate(0, 0, -1), true},
		{"paid past due", billing.StatusPaid, now.AddDate(0, 0, -10), false},
		{"due today", billing.StatusDraft, now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{Status: tt.status, DueDate: tt.due}
			inv.RefreshOverdue(now)
			if inv.IsOverdue != tt.want {
				t.Errorf("IsOverdue = %v, want %v", inv.IsOverdue, tt.want)
			}
		})
	}
}

func TestInvoiceItem_ComputeLineTotal(t *testing.T) {
	item := &InvoiceItem{
		Quantity:  decimal.RequireFromString("2.5"),
		UnitPrice: decimal.RequireFromString("40.10"),
	}
	item.ComputeLineTotal()
	if !item.LineTotal.Equal(decimal.RequireFromString("100.25")) {
		t.Errorf("LineTotal = %s, want 100.25", item.LineTotal)
	}
}

func TestInvoice_Lines(t *testing.T) {
	inv := &Invoice{Items: []InvoiceItem{
		{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)},
		{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(7)},
	}}
	lines := inv.Lines()
	if len(lines) != 2 {
		t.Fatalf("len(Lines()) = %d, want 2", len(lines))
	}
	if !lines[0].UnitPrice.Equal(decimal.NewFromInt(50)) {
		t.Errorf("lines[0].UnitPrice = %s, want 50", lines[0].UnitPrice)
	}
}

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"business name wins", User{BusinessName: "Kay Jan", FirstName: "Jean", Username: "jean"}, "Kay Jan"},
		{"full name", User{FirstName: "Jean", LastName: "Baptiste", Username: "jean"}, "Jean Baptiste"},
		{"username fallback", User{Username: "jean"}, "jean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
