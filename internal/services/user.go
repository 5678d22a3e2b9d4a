package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/fakti/internal/models"
	"github.com/diewo77/fakti/validation"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	db   *gorm.DB
	log  *zap.Logger
	cost int
}

func NewUserService(db *gorm.DB, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{db: db, log: log.Named("users"), cost: bcrypt.DefaultCost}
}

// WithHashCost sets the bcrypt cost; tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

type RegisterInput struct {
	Username        string `json:"username" validate:"required,max=150"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"eqfield=Password"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	Language        string `json:"language" validate:"omitempty,oneof=ht en"`
}

type ProfileInput struct {
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	Email           string `json:"email" validate:"required,email,max=255"`
	BusinessName    string `json:"business_name" validate:"max=200"`
	BusinessAddress string `json:"business_address"`
	BusinessPhone   string `json:"business_phone" validate:"max=20"`
	TaxID           string `json:"tax_id" validate:"max=50"`
	Language        string `json:"language" validate:"omitempty,oneof=ht en"`
}

// Register creates an account. Username and email must be unused.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Language == "" {
		in.Language = models.LanguageCreole
	}
	v := validation.Struct(in)
	db := s.db.WithContext(ctx)
	if v.Empty() {
		if taken, err := s.taken(db, "username", in.Username, 0); err != nil {
			return nil, err
		} else if taken {
			v.Add("username", "taken")
		}
		if taken, err := s.taken(db, "email", in.Email, 0); err != nil {
			return nil, err
		} else if taken {
			v.Add("email", "taken")
		}
	}
	if err := invalid(v); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hash),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Language:  in.Language,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", zap.Uint("user_id", user.ID))
	return &user, nil
}

func (s *UserService) taken(db *gorm.DB, column, value string, exceptID uint) (bool, error) {
	var count int64
	q := db.Model(&models.User{}).Where(column+" = ?", value)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check %s: %w", column, err)
	}
	return count > 0, nil
}

// Authenticate checks a username or email against the stored password hash.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// Exists reports whether the account still exists.
func (s *UserService) Exists(ctx context.Context, id uint) bool {
	var count int64
	s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count)
	return count > 0
}

// UpdateProfile edits the names, email, business fields and language.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Language == "" {
		in.Language = models.LanguageCreole
	}
	v := validation.Struct(in)
	db := s.db.WithContext(ctx)
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Empty() {
		if taken, err := s.taken(db, "email", in.Email, id); err != nil {
			return nil, err
		} else if taken {
			v.Add("email", "taken")
		}
	}
	if err := invalid(v); err != nil {
		return nil, err
	}
	err = db.Model(user).Updates(map[string]any{
		"first_name":       in.FirstName,
		"last_name":        in.LastName,
		"email":            in.Email,
		"business_name":    in.BusinessName,
		"business_address": in.BusinessAddress,
		"business_phone":   in.BusinessPhone,
		"tax_id":           in.TaxID,
		"language":         in.Language,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes the account with every client, invoice and item it owns.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoiceIDs := tx.Model(&models.Invoice{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("invoice_id IN (?)", invoiceIDs).Delete(&models.InvoiceItem{}).Error; err != nil {
			return fmt.Errorf("delete items: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Invoice{}).Error; err != nil {
			return fmt.Errorf("delete invoices: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Client{}).Error; err != nil {
			return fmt.Errorf("delete clients: %w", err)
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Uint("user_id", id))
	return nil
}
