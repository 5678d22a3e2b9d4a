package models

import (
	"strings"
	"time"
)

// Supported interface languages.
const (
	LanguageCreole  = "ht"
	LanguageEnglish = "en"
)

// User represents an authenticated account and its business profile.
// The business fields are printed on the invoices the user issues.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Username  string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON
	FirstName string    `gorm:"size:150" json:"first_name,omitempty"`
	LastName  string    `gorm:"size:150" json:"last_name,omitempty"`

	BusinessName    string `gorm:"size:200" json:"business_name,omitempty"`
	BusinessAddress string `gorm:"type:text" json:"business_address,omitempty"`
	BusinessPhone   string `gorm:"size:20" json:"business_phone,omitempty"`
	TaxID           string `gorm:"size:50" json:"tax_id,omitempty"`
	Language        string `gorm:"size:2;not null;default:ht" json:"language"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName is the name shown as the invoice issuer.
func (u *User) DisplayName() string {
	if u.BusinessName != "" {
		return u.BusinessName
	}
	if n := u.FullName(); n != "" {
		return n
	}
	return u.Username
}

// IsSupportedLanguage reports whether lang is an interface language.
func IsSupportedLanguage(lang string) bool {
	return lang == LanguageCreole || lang == LanguageEnglish
}
