package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/diewo77/fakti/internal/models"
	"github.com/diewo77/fakti/internal/policy"
	"github.com/diewo77/fakti/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClientService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewClientService(db *gorm.DB, log *zap.Logger) *ClientService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClientService{db: db, log: log.Named("clients")}
}

// ClientInput carries the editable client fields.
type ClientInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Phone   string `json:"phone" validate:"max=20"`
	Address string `json:"address"`
	City    string `json:"city" validate:"max=100"`
	Country string `json:"country" validate:"max=100"`
	Notes   string `json:"notes"`
}

func (in *ClientInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if strings.TrimSpace(in.Country) == "" {
		in.Country = models.DefaultCountry
	}
}

func (in ClientInput) validate() validation.Violations {
	v := validation.Struct(in)
	validation.Required("name", in.Name, v)
	return v
}

func (in ClientInput) apply(c *models.Client) {
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.City = in.City
	c.Country = in.Country
	c.Notes = in.Notes
}

// List returns the user's clients, newest first.
func (s *ClientService) List(ctx context.Context, userID uint) ([]models.Client, error) {
	return s.find(ctx, userID, 0)
}

// Recent returns the n most recently created clients.
func (s *ClientService) Recent(ctx context.Context, userID uint, n int) ([]models.Client, error) {
	return s.find(ctx, userID, n)
}

func (s *ClientService) find(ctx context.Context, userID uint, limit int) ([]models.Client, error) {
	q := s.db.WithContext(ctx).Scopes(policy.OwnedBy(userID)).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var clients []models.Client
	if err := q.Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	if err := s.fillDerived(ctx, userID, clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// Get returns a client of the user with its invoice count and billed total.
func (s *ClientService) Get(ctx context.Context, userID, id uint) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).Scopes(policy.OwnedBy(userID)).First(&client, id).Error; err != nil {
		return nil, notFound(err, "client")
	}
	one := []models.Client{client}
	if err := s.fillDerived(ctx, userID, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

type clientTotals struct {
	ClientID uint
	Count    int64
	Billed   decimal.Decimal
}

func (s *ClientService) fillDerived(ctx context.Context, userID uint, clients []models.Client) error {
	if len(clients) == 0 {
		return nil
	}
	ids := make([]uint, len(clients))
	for i, c := range clients {
		ids[i] = c.ID
	}
	var rows []clientTotals
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Select("client_id, COUNT(*) AS count, COALESCE(SUM(total), 0) AS billed").
		Scopes(policy.OwnedBy(userID)).
		Where("client_id IN ?", ids).
		Group("client_id").
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("client totals: %w", err)
	}
	byID := make(map[uint]clientTotals, len(rows))
	for _, r := range rows {
		byID[r.ClientID] = r
	}
	for i := range clients {
		t := byID[clients[i].ID]
		clients[i].InvoicesCount = t.Count
		clients[i].TotalBilled = t.Billed.Round(2)
	}
	return nil
}

// Create stores a new client for the user.
func (s *ClientService) Create(ctx context.Context, userID uint, in ClientInput) (*models.Client, error) {
	in.normalize()
	if err := invalid(in.validate()); err != nil {
		return nil, err
	}
	client := models.Client{UserID: userID}
	in.apply(&client)
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&client).Error; err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	client.TotalBilled = decimal.Zero
	s.log.Info("client created", zap.Uint("client_id", client.ID), zap.Uint("user_id", userID))
	return &client, nil
}

// Update edits a client of the user.
func (s *ClientService) Update(ctx context.Context, userID, id uint, in ClientInput) (*models.Client, error) {
	in.normalize()
	if err := invalid(in.validate()); err != nil {
		return nil, err
	}
	var client models.Client
	db := s.db.WithContext(ctx)
	if err := db.Scopes(policy.OwnedBy(userID)).First(&client, id).Error; err != nil {
		return nil, notFound(err, "client")
	}
	in.apply(&client)
	err := db.Model(&client).Updates(map[string]any{
		"name":    client.Name,
		"email":   client.Email,
		"phone":   client.Phone,
		"address": client.Address,
		"city":    client.City,
		"country": client.Country,
		"notes":   client.Notes,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return s.Get(ctx, userID, id)
}

// Delete removes a client with all its invoices and their items.
func (s *ClientService) Delete(ctx context.Context, userID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.Scopes(policy.OwnedBy(userID)).Select("id").First(&client, id).Error; err != nil {
			return notFound(err, "client")
		}
		invoiceIDs := tx.Model(&models.Invoice{}).Select("id").Where("client_id = ?", id)
		if err := tx.Where("invoice_id IN (?)", invoiceIDs).Delete(&models.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		if err := tx.Where("client_id = ?", id).Delete(&models.Invoice{}).Error; err != nil {
			return fmt.Errorf("delete invoices: %w", err)
		}
		if err := tx.Delete(&models.Client{}, id).Error; err != nil {
			return fmt.Errorf("delete client: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("client deleted", zap.Uint("client_id", id), zap.Uint("user_id", userID))
	return nil
}
