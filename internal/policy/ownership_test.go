package policy_test

import (
	"fmt"
	"testing"

	"github.com/diewo77/fakti/internal/policy"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// mockOwnable is a test resource that implements Ownable.
type mockOwnable struct {
	userID uint
}

func (m *mockOwnable) GetUserID() uint {
	return m.userID
}

// mockNonOwnable is a test resource that does NOT implement Ownable.
type mockNonOwnable struct {
	ID uint
}

func TestOwns_OwnerCanAccess(t *testing.T) {
	if !policy.Owns(42, &mockOwnable{userID: 42}) {
		t.Error("Expected owner to have access")
	}
}

func TestOwns_NonOwnerDenied(t *testing.T) {
	if policy.Owns(99, &mockOwnable{userID: 42}) {
		t.Error("Expected non-owner to be denied")
	}
}

func TestOwns_NonOwnableResource(t *testing.T) {
	if policy.Owns(1, &mockNonOwnable{ID: 1}) {
		t.Error("Expected non-Ownable resource to be denied")
	}
}

func TestOwns_Anonymous(t *testing.T) {
	if policy.Owns(0, &mockOwnable{userID: 0}) {
		t.Error("Expected anonymous user to be denied")
	}
	if policy.Owns(1, nil) {
		t.Error("Expected nil resource to be denied")
	}
}

type note struct {
	ID     uint
	UserID uint
	Body   string
}

func TestOwnedBy_Scope(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&note{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db.Create(&[]note{{UserID: 1, Body: "a"}, {UserID: 2, Body: "b"}, {UserID: 1, Body: "c"}})

	var mine []note
	if err := db.Scopes(policy.OwnedBy(1)).Find(&mine).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("got %d notes, want 2", len(mine))
	}

	var other note
	err = db.Scopes(policy.OwnedBy(1, "notes")).Where("notes.body = ?", "b").First(&other).Error
	if err != gorm.ErrRecordNotFound {
		t.Errorf("expected record not found for foreign row, got %v", err)
	}
}
