// Package policy scopes data access to the owning user.
package policy

import "gorm.io/gorm"

// Ownable is an interface for resources that have an owner.
// Implement this on your models to enable ownership-based authorization.
type Ownable interface {
	GetUserID() uint
}

// Owns reports whether userID owns the resource.
// Resources that do not implement Ownable are denied by default, which
// prevents accidental access to resources without ownership checks.
func Owns(userID uint, resource any) bool {
	if userID == 0 || resource == nil {
		return false
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return ownable.GetUserID() == userID
}

// OwnedBy is a gorm scope restricting a query to rows of userID.
// table qualifies the column when the query joins other tables.
func OwnedBy(userID uint, table ...string) func(*gorm.DB) *gorm.DB {
	col := "user_id"
	if len(table) > 0 && table[0] != "" {
		col = table[0] + ".user_id"
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(col+" = ?", userID)
	}
}
