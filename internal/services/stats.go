package services

import (
	"context"
	"fmt"

	"github.com/diewo77/fakti/internal/billing"
	"github.com/diewo77/fakti/internal/models"
	"github.com/diewo77/fakti/internal/policy"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecentLimit is the number of recent invoices and clients on the dashboard.
const RecentLimit = 5

// Stats aggregates the invoices of one user.
type Stats struct {
	TotalInvoices    int64                    `json:"total_invoices"`
	ByStatus         map[billing.Status]int64 `json:"by_status"`
	PaidInvoices     int64                    `json:"paid_invoices"`
	UnpaidInvoices   int64                    `json:"unpaid_invoices"`
	TotalAmount      decimal.Decimal          `json:"total_amount"`
	TotalPaid        decimal.Decimal          `json:"total_paid"`
	TotalOutstanding decimal.Decimal          `json:"total_outstanding"`
	RecentInvoices   []models.Invoice         `json:"recent_invoices"`
	RecentClients    []models.Client          `json:"recent_clients"`
}

type StatsService struct {
	db       *gorm.DB
	invoices *InvoiceService
	clients  *ClientService
}

func NewStatsService(db *gorm.DB, invoices *InvoiceService, clients *ClientService) *StatsService {
	return &StatsService{db: db, invoices: invoices, clients: clients}
}

type statusTotals struct {
	Status billing.Status
	Count  int64
	Amount decimal.Decimal
}

// Summary returns counts per status, money totals and the recent records.
// Outstanding is the sum of every invoice that is not paid.
func (s *StatsService) Summary(ctx context.Context, userID uint) (*Stats, error) {
	var rows []statusTotals
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS amount").
		Scopes(policy.OwnedBy(userID)).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("invoice stats: %w", err)
	}

	st := &Stats{
		ByStatus:         make(map[billing.Status]int64, len(billing.Statuses)),
		TotalAmount:      decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}
	for _, status := range billing.Statuses {
		st.ByStatus[status] = 0
	}
	for _, r := range rows {
		amount := r.Amount.Round(billing.MoneyPlaces)
		st.ByStatus[r.Status] = r.Count
		st.TotalInvoices += r.Count
		st.TotalAmount = st.TotalAmount.Add(amount)
		if r.Status == billing.StatusPaid {
			st.PaidInvoices += r.Count
			st.TotalPaid = st.TotalPaid.Add(amount)
		} else {
			st.UnpaidInvoices += r.Count
			st.TotalOutstanding = st.TotalOutstanding.Add(amount)
		}
	}

	if st.RecentInvoices, err = s.invoices.List(ctx, userID, InvoiceFilter{Limit: RecentLimit}); err != nil {
		return nil, err
	}
	if st.RecentClients, err = s.clients.Recent(ctx, userID, RecentLimit); err != nil {
		return nil, err
	}
	return st, nil
}
