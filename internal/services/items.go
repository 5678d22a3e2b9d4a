package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/diewo77/fakti/internal/models"
	"github.com/diewo77/fakti/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ItemInput is one line item as submitted by a caller. LineTotal is always
// derived. A nil Quantity defaults to 1.
type ItemInput struct {
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

// ItemUpdate edits an existing item of the invoice.
type ItemUpdate struct {
	ID uint `json:"id"`
	ItemInput
}

// ItemChanges is an item group: adds, edits and deletes applied together
// in one transaction followed by a single recalculation.
type ItemChanges struct {
	Add    []ItemInput  `json:"add"`
	Update []ItemUpdate `json:"update"`
	Delete []uint       `json:"delete"`
}

// Empty reports whether the group carries no change.
func (c ItemChanges) Empty() bool {
	return len(c.Add) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}

func (in ItemInput) quantity() decimal.Decimal {
	if in.Quantity == nil {
		return decimal.NewFromInt(1)
	}
	return *in.Quantity
}

func (in ItemInput) validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("description", in.Description, v)
	validation.MaxLength("description", in.Description, 255, v)

	q := in.quantity()
	validation.NonNegativeDecimal("quantity", q, v)
	validation.MaxPlaces("quantity", q, 2, v)
	validation.MaxDigits("quantity", q, 10, 2, v)

	if in.UnitPrice == nil {
		v.Add("unit_price", "required")
	} else {
		validation.NonNegativeDecimal("unit_price", *in.UnitPrice, v)
		validation.MaxPlaces("unit_price", *in.UnitPrice, 2, v)
		validation.MaxDigits("unit_price", *in.UnitPrice, 10, 2, v)
	}
	if v.Empty() {
		validation.MaxDigits("line_total", q.Mul(*in.UnitPrice), 10, 2, v)
	}
	return v
}

func (in ItemInput) apply(item *models.InvoiceItem) {
	item.Description = strings.TrimSpace(in.Description)
	item.Quantity = in.quantity()
	item.UnitPrice = *in.UnitPrice
	item.ComputeLineTotal()
}

func (c ItemChanges) validate() validation.Violations {
	v := make(validation.Violations)
	for i, it := range c.Add {
		v.Merge(it.validate().Prefixed(fmt.Sprintf("add[%d].", i)))
	}
	for i, it := range c.Update {
		if it.ID == 0 {
			v.Add(fmt.Sprintf("update[%d].id", i), "required")
		}
		v.Merge(it.validate().Prefixed(fmt.Sprintf("update[%d].", i)))
	}
	for i, id := range c.Delete {
		if id == 0 {
			v.Add(fmt.Sprintf("delete[%d]", i), "required")
		}
	}
	return v
}

// applyItemChanges persists a group without recalculating. Edits and deletes
// must target items of invoiceID.
func (s *InvoiceService) applyItemChanges(tx *gorm.DB, invoiceID uint, c ItemChanges) error {
	for _, id := range c.Delete {
		res := tx.Where("id = ? AND invoice_id = ?", id, invoiceID).Delete(&models.InvoiceItem{})
		if res.Error != nil {
			return fmt.Errorf("delete item %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
	}
	for _, u := range c.Update {
		var item models.InvoiceItem
		if err := tx.Where("id = ? AND invoice_id = ?", u.ID, invoiceID).First(&item).Error; err != nil {
			return notFound(err, "item")
		}
		u.apply(&item)
		err := tx.Model(&item).Updates(map[string]any{
			"description": item.Description,
			"quantity":    item.Quantity,
			"unit_price":  item.UnitPrice,
			"line_total":  item.LineTotal,
		}).Error
		if err != nil {
			return fmt.Errorf("update item %d: %w", u.ID, err)
		}
	}
	for _, in := range c.Add {
		item := models.InvoiceItem{InvoiceID: invoiceID}
		in.apply(&item)
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("create item: %w", err)
		}
	}
	return nil
}

// SaveItems persists a whole item group and then recalculates the invoice
// exactly once.
func (s *InvoiceService) SaveItems(ctx context.Context, userID, invoiceID uint, changes ItemChanges) (*models.Invoice, error) {
	if err := invalid(changes.validate()); err != nil {
		return nil, err
	}
	var saved *models.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.lockOwned(tx, userID, invoiceID); err != nil {
			return err
		}
		if err := s.applyItemChanges(tx, invoiceID, changes); err != nil {
			return err
		}
		if _, err := s.RecalculateInvoiceTotals(ctx, tx, userID, invoiceID); err != nil {
			return err
		}
		var err error
		saved, err = s.load(tx, userID, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invoice items saved",
		zap.Uint("invoice_id", invoiceID),
		zap.Int("added", len(changes.Add)),
		zap.Int("updated", len(changes.Update)),
		zap.Int("deleted", len(changes.Delete)),
	)
	return saved, nil
}

// AddItem stores one item and recalculates the invoice.
func (s *InvoiceService) AddItem(ctx context.Context, userID, invoiceID uint, in ItemInput) (*models.Invoice, error) {
	if err := invalid(in.validate()); err != nil {
		return nil, err
	}
	return s.SaveItems(ctx, userID, invoiceID, ItemChanges{Add: []ItemInput{in}})
}

// UpdateItem edits one item and recalculates the invoice.
func (s *InvoiceService) UpdateItem(ctx context.Context, userID, invoiceID, itemID uint, in ItemInput) (*models.Invoice, error) {
	if err := invalid(in.validate()); err != nil {
		return nil, err
	}
	return s.SaveItems(ctx, userID, invoiceID, ItemChanges{Update: []ItemUpdate{{ID: itemID, ItemInput: in}}})
}

// RemoveItem deletes one item and recalculates the invoice.
func (s *InvoiceService) RemoveItem(ctx context.Context, userID, invoiceID, itemID uint) (*models.Invoice, error) {
	return s.SaveItems(ctx, userID, invoiceID, ItemChanges{Delete: []uint{itemID}})
}
