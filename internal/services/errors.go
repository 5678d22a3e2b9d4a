package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/diewo77/fakti/validation"
	"gorm.io/gorm"
)

// ErrNotFound is returned for ids that do not exist or belong to another
// user. Both cases are reported identically.
var ErrNotFound = errors.New("not found")

// ErrInvalidCredentials is returned by Authenticate for unknown users and bad passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports malformed input. It is always returned before
// anything is written.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f, code := range e.Violations {
		fields = append(fields, f+"="+code)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// invalid returns a *ValidationError when v is not empty.
func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

func fieldError(field, code string) error {
	return &ValidationError{Violations: validation.Violations{field: code}}
}

// notFound maps gorm's missing-row error to ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("load %s: %w", what, err)
}
