package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCountry is applied to clients created without a country.
const DefaultCountry = "Haiti"

// Client represents a customer in the billing system.
// Implements the Ownable interface for ownership-based authorization.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the owner of this client (for multi-tenant isolation)
	UserID uint  `gorm:"index;not null" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	Name    string `gorm:"size:200;not null" json:"name"`
	Email   string `gorm:"size:254" json:"email,omitempty"`
	Phone   string `gorm:"size:20" json:"phone,omitempty"`
	Address string `gorm:"type:text" json:"address,omitempty"`
	City    string `gorm:"size:100" json:"city,omitempty"`
	Country string `gorm:"size:100;default:Haiti" json:"country,omitempty"`
	Notes   string `gorm:"type:text" json:"notes,omitempty"`

	// Derived on read, never stored.
	InvoicesCount int64           `gorm:"-" json:"invoices_count"`
	TotalBilled   decimal.Decimal `gorm:"-" json:"total_billed"`
}

// GetUserID implements the Ownable interface for authorization.
func (c *Client) GetUserID() uint {
	return c.UserID
}

// FullAddress joins the non-empty address parts with ", ".
func (c *Client) FullAddress() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Address, c.City, c.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
