package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/fakti/internal/billing"
	"github.com/diewo77/fakti/internal/models"
	"github.com/diewo77/fakti/internal/observability"
	"github.com/diewo77/fakti/internal/policy"
	"github.com/diewo77/fakti/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPaymentDays is the number of calendar days between issue and due
// date proposed for new invoices.
const DefaultPaymentDays = 30

// RecalculationRecorder counts recalculation runs by outcome.
type RecalculationRecorder interface {
	RecordRecalculation(result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordRecalculation(string) {}

// InvoiceService owns every write to invoices and their items. All money
// fields go through RecalculateInvoiceTotals.
type InvoiceService struct {
	db       *gorm.DB
	log      *zap.Logger
	recorder RecalculationRecorder
	now      func() time.Time
}

// InvoiceOption configures an InvoiceService.
type InvoiceOption func(*InvoiceService)

// WithClock overrides the wall clock used for overdue checks and numbering.
func WithClock(now func() time.Time) InvoiceOption {
	return func(s *InvoiceService) { s.now = now }
}

func NewInvoiceService(db *gorm.DB, log *zap.Logger, recorder RecalculationRecorder, opts ...InvoiceOption) *InvoiceService {
	if log == nil {
		log = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	s := &InvoiceService{db: db, log: log.Named("invoices"), recorder: recorder, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InvoiceInput carries the caller-editable invoice fields. The four money
// outputs are not part of it.
type InvoiceInput struct {
	ClientID        uint             `json:"client_id"`
	InvoiceNumber   string           `json:"invoice_number"`
	IssueDate       time.Time        `json:"issue_date"`
	DueDate         time.Time        `json:"due_date"`
	Status          billing.Status   `json:"status"`
	Currency        billing.Currency `json:"currency"`
	Notes           string           `json:"notes"`
	TaxPercent      decimal.Decimal  `json:"tax_percent"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
}

// InvoiceFilter narrows List. Zero values mean no filter.
type InvoiceFilter struct {
	Status   billing.Status
	ClientID uint
	Limit    int
}

// InvoiceDefaults pre-fills a new invoice form.
type InvoiceDefaults struct {
	ClientID      uint             `json:"client_id,omitempty"`
	InvoiceNumber string           `json:"invoice_number"`
	IssueDate     time.Time        `json:"issue_date"`
	DueDate       time.Time        `json:"due_date"`
	Status        billing.Status   `json:"status"`
	Currency      billing.Currency `json:"currency"`
}

func (in *InvoiceInput) normalize() {
	in.InvoiceNumber = strings.TrimSpace(in.InvoiceNumber)
	in.IssueDate = billing.Day(in.IssueDate)
	in.DueDate = billing.Day(in.DueDate)
	if in.Status == "" {
		in.Status = billing.StatusDraft
	}
	if in.Currency == "" {
		in.Currency = billing.CurrencyHTG
	}
}

func (in InvoiceInput) validate() validation.Violations {
	v := make(validation.Violations)
	if in.ClientID == 0 {
		v.Add("client_id", "required")
	}
	validation.MaxLength("invoice_number", in.InvoiceNumber, 50, v)
	if in.IssueDate.IsZero() {
		v.Add("issue_date", "required")
	}
	if in.DueDate.IsZero() {
		v.Add("due_date", "required")
	}
	if !in.Status.IsValid() {
		v.Add("status", "invalid_choice")
	}
	if !in.Currency.IsValid() {
		v.Add("currency", "invalid_choice")
	}
	validation.PercentDecimal("tax_percent", in.TaxPercent, v)
	validation.PercentDecimal("discount_percent", in.DiscountPercent, v)
	return v
}

// List returns the user's invoices, newest first, with their client.
func (s *InvoiceService) List(ctx context.Context, userID uint, filter InvoiceFilter) ([]models.Invoice, error) {
	q := s.db.WithContext(ctx).Scopes(policy.OwnedBy(userID)).Preload("Client")
	if filter.Status != "" {
		if !filter.Status.IsValid() {
			return nil, fieldError("status", "invalid_choice")
		}
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ClientID != 0 {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var invoices []models.Invoice
	if err := q.Order("created_at DESC").Order("id DESC").Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	now := s.now()
	for i := range invoices {
		invoices[i].RefreshOverdue(now)
	}
	return invoices, nil
}

// Get returns one invoice with its client and items.
func (s *InvoiceService) Get(ctx context.Context, userID, id uint) (*models.Invoice, error) {
	return s.load(s.db.WithContext(ctx), userID, id)
}

func (s *InvoiceService) load(tx *gorm.DB, userID, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := tx.Scopes(policy.OwnedBy(userID)).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&inv, id).Error
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	inv.RefreshOverdue(s.now())
	return &inv, nil
}

// NextInvoiceNumber suggests INV-{year}-{n} where n follows the number of
// invoices the user created during the calendar year of now.
func (s *InvoiceService) NextInvoiceNumber(ctx context.Context, userID uint, now time.Time) (string, error) {
	return s.nextNumber(s.db.WithContext(ctx), userID, now)
}

func (s *InvoiceService) nextNumber(tx *gorm.DB, userID uint, now time.Time) (string, error) {
	// created_at is stored in UTC; sqlite compares it as text.
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(1, 0, 0)
	var count int64
	err := tx.Model(&models.Invoice{}).
		Scopes(policy.OwnedBy(userID)).
		Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC()).
		Count(&count).Error
	if err != nil {
		return "", fmt.Errorf("count invoices: %w", err)
	}
	return billing.InvoiceNumber(now.Year(), count+1), nil
}

// Defaults returns the pre-filled values of a new invoice. A clientID the
// user does not own is ignored.
func (s *InvoiceService) Defaults(ctx context.Context, userID, clientID uint) (*InvoiceDefaults, error) {
	now := s.now()
	number, err := s.NextInvoiceNumber(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	today := billing.Day(now)
	d := &InvoiceDefaults{
		InvoiceNumber: number,
		IssueDate:     today,
		DueDate:       today.AddDate(0, 0, DefaultPaymentDays),
		Status:        billing.StatusDraft,
		Currency:      billing.CurrencyHTG,
	}
	if clientID != 0 {
		if err := s.requireClient(s.db.WithContext(ctx), userID, clientID); err == nil {
			d.ClientID = clientID
		}
	}
	return d, nil
}

// requireClient fails with a validation error when the client is not the user's.
func (s *InvoiceService) requireClient(tx *gorm.DB, userID, clientID uint) error {
	var client models.Client
	err := tx.Select("id", "user_id").First(&client, clientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !policy.Owns(userID, &client)) {
		return fieldError("client_id", "invalid_choice")
	}
	if err != nil {
		return fmt.Errorf("load client: %w", err)
	}
	return nil
}

// Create persists an invoice and its first items in one transaction. Totals
// are computed once, after every item is stored. An empty invoice number is
// replaced by the suggestion.
func (s *InvoiceService) Create(ctx context.Context, userID uint, in InvoiceInput, items []ItemInput) (*models.Invoice, error) {
	in.normalize()
	v := in.validate()
	for i, it := range items {
		v.Merge(it.validate().Prefixed(fmt.Sprintf("items[%d].", i)))
	}
	if err := invalid(v); err != nil {
		return nil, err
	}

	var created *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.requireClient(tx, userID, in.ClientID); err != nil {
			return err
		}
		if in.InvoiceNumber == "" {
			number, err := s.nextNumber(tx, userID, s.now())
			if err != nil {
				return err
			}
			in.InvoiceNumber = number
		}

		inv := models.Invoice{
			UserID:          userID,
			ClientID:        in.ClientID,
			InvoiceNumber:   in.InvoiceNumber,
			IssueDate:       in.IssueDate,
			DueDate:         in.DueDate,
			Status:          in.Status,
			Currency:        in.Currency,
			Notes:           in.Notes,
			TaxPercent:      in.TaxPercent,
			DiscountPercent: in.DiscountPercent,
		}
		inv.SetTotals(billing.Zero())
		if err := tx.Omit(clause.Associations).Create(&inv).Error; err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		if len(items) > 0 {
			if err := s.applyItemChanges(tx, inv.ID, ItemChanges{Add: items}); err != nil {
				return err
			}
			if _, err := s.RecalculateInvoiceTotals(ctx, tx, userID, inv.ID); err != nil {
				return err
			}
		}

		loaded, err := s.load(tx, userID, inv.ID)
		if err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invoice created",
		zap.Uint("invoice_id", created.ID),
		zap.Uint("user_id", userID),
		zap.Int("items", len(items)),
	)
	return created, nil
}

// Update saves the invoice fields and an optional item group, then
// recalculates once.
func (s *InvoiceService) Update(ctx context.Context, userID, id uint, in InvoiceInput, changes ItemChanges) (*models.Invoice, error) {
	in.normalize()
	v := in.validate()
	v.Merge(changes.validate())
	if err := invalid(v); err != nil {
		return nil, err
	}

	var updated *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.lockOwned(tx, userID, id)
		if err != nil {
			return err
		}
		if err := s.requireClient(tx, userID, in.ClientID); err != nil {
			return err
		}
		if in.InvoiceNumber == "" {
			in.InvoiceNumber = current.InvoiceNumber
		}

		err = tx.Model(&models.Invoice{}).Where("id = ?", id).Updates(map[string]any{
			"client_id":        in.ClientID,
			"invoice_number":   in.InvoiceNumber,
			"issue_date":       in.IssueDate,
			"due_date":         in.DueDate,
			"status":           in.Status,
			"currency":         in.Currency,
			"notes":            in.Notes,
			"tax_percent":      in.TaxPercent,
			"discount_percent": in.DiscountPercent,
		}).Error
		if err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}

		if err := s.applyItemChanges(tx, id, changes); err != nil {
			return err
		}
		if _, err := s.RecalculateInvoiceTotals(ctx, tx, userID, id); err != nil {
			return err
		}

		updated, err = s.load(tx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ChangeStatus sets the status of an invoice. Saving the invoice also
// refreshes its totals.
func (s *InvoiceService) ChangeStatus(ctx context.Context, userID, id uint, status billing.Status) (*models.Invoice, error) {
	if !status.IsValid() {
		return nil, fieldError("status", "invalid_choice")
	}
	var updated *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockOwned(tx, userID, id); err != nil {
			return err
		}
		if err := tx.Model(&models.Invoice{}).Where("id = ?", id).Update("status", status).Error; err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if _, err := s.RecalculateInvoiceTotals(ctx, tx, userID, id); err != nil {
			return err
		}
		var err error
		updated, err = s.load(tx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invoice status changed", zap.Uint("invoice_id", id), zap.String("status", string(status)))
	return updated, nil
}

// Delete removes an invoice and its items.
func (s *InvoiceService) Delete(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockOwned(tx, userID, id); err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		if err := tx.Delete(&models.Invoice{}, id).Error; err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		return nil
	})
}

// lockOwned loads the invoice row for update, scoped to the user.
func (s *InvoiceService) lockOwned(tx *gorm.DB, userID, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	q := tx.Scopes(policy.OwnedBy(userID))
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&inv, id).Error; err != nil {
		return nil, notFound(err, "invoice")
	}
	return &inv, nil
}

// RecalculateInvoiceTotals recomputes subtotal, tax, discount and total from
// the persisted items and writes the four columns in a single UPDATE. The
// stored result is then checked against a fresh computation; a mismatch
// aborts the surrounding transaction.
//
// tx must be the transaction of the calling operation. A nil tx runs the
// recalculation in its own transaction.
func (s *InvoiceService) RecalculateInvoiceTotals(ctx context.Context, tx *gorm.DB, userID, invoiceID uint) (billing.Totals, error) {
	if tx == nil {
		var totals billing.Totals
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			totals, err = s.RecalculateInvoiceTotals(ctx, tx, userID, invoiceID)
			return err
		})
		return totals, err
	}

	var inv models.Invoice
	if err := tx.Scopes(policy.OwnedBy(userID)).First(&inv, invoiceID).Error; err != nil {
		return billing.Totals{}, notFound(err, "invoice")
	}
	var items []models.InvoiceItem
	if err := tx.Where("invoice_id = ?", invoiceID).Order("id").Find(&items).Error; err != nil {
		return billing.Totals{}, fmt.Errorf("load items: %w", err)
	}
	lines := models.ItemLines(items)
	totals := billing.Recalculate(inv.TaxPercent, inv.DiscountPercent, lines)

	err := tx.Model(&models.Invoice{}).Where("id = ?", invoiceID).Updates(map[string]any{
		"subtotal":        totals.Subtotal,
		"tax_amount":      totals.TaxAmount,
		"discount_amount": totals.DiscountAmount,
		"total":           totals.Total,
	}).Error
	if err != nil {
		return billing.Totals{}, fmt.Errorf("store totals: %w", err)
	}

	var stored models.Invoice
	err = tx.Select("id", "subtotal", "tax_amount", "discount_amount", "total").First(&stored, invoiceID).Error
	if err != nil {
		return billing.Totals{}, fmt.Errorf("reload totals: %w", err)
	}
	if err := billing.CheckConsistency(invoiceID, stored.Totals(), inv.TaxPercent, inv.DiscountPercent, lines); err != nil {
		s.recorder.RecordRecalculation(observability.RecalcInconsistent)
		s.log.Error("invoice totals inconsistent after recalculation",
			zap.Uint("invoice_id", invoiceID),
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return billing.Totals{}, err
	}

	s.recorder.RecordRecalculation(observability.RecalcOK)
	s.log.Debug("invoice totals recalculated",
		zap.Uint("invoice_id", invoiceID),
		zap.Int("items", len(items)),
		zap.String("total", totals.Total.StringFixed(billing.MoneyPlaces)),
	)
	return totals, nil
}
