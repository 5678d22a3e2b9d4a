// Package validation collects field violations as field -> code pairs.
// Codes are stable identifiers translated by the i18n package.
package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records code for field unless the field already has a violation.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

// Merge copies other into v, keeping existing entries.
func (v Violations) Merge(other Violations) {
	for f, c := range other {
		v.Add(f, c)
	}
}

// Prefixed returns a copy of v with every field prefixed, e.g. "items[2].".
func (v Violations) Prefixed(prefix string) Violations {
	out := make(Violations, len(v))
	for f, c := range v {
		out[prefix+f] = c
	}
	return out
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func MaxLength(field, value string, maxLen int, v Violations) {
	if len([]rune(value)) > maxLen {
		v.Add(field, "too_long")
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, "must_not_be_negative")
	}
}

// PercentDecimal accepts 0..100 with at most two decimal places.
func PercentDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() || val.GreaterThan(decimal.NewFromInt(100)) {
		v.Add(field, "out_of_range")
		return
	}
	MaxPlaces(field, val, 2, v)
}

// MaxPlaces rejects values with more fractional digits than the column stores.
func MaxPlaces(field string, val decimal.Decimal, places int32, v Violations) {
	if !val.Equal(val.Truncate(places)) {
		v.Add(field, "too_many_decimals")
	}
}

// MaxDigits rejects values that do not fit a decimal(digits, places) column.
func MaxDigits(field string, val decimal.Decimal, digits, places int32, v Violations) {
	limit := decimal.New(1, digits-places)
	if val.Abs().GreaterThanOrEqual(limit) {
		v.Add(field, "out_of_range")
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Use JSON tag names for field names in violations
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct runs the `validate` struct tags of s and returns the violations.
func Struct(s any) Violations {
	v := make(Violations)
	err := engine().Struct(s)
	if err == nil {
		return v
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		v.Add("_", "invalid")
		return v
	}
	for _, fe := range fieldErrs {
		v.Add(fe.Field(), codeFor(fe))
	}
	return v
}

func codeFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "invalid_email"
	case "min":
		if fe.Kind() == reflect.String {
			return "too_short"
		}
		return "out_of_range"
	case "max":
		if fe.Kind() == reflect.String {
			return "too_long"
		}
		return "out_of_range"
	case "oneof":
		return "invalid_choice"
	case "eqfield":
		return "mismatch"
	default:
		return "invalid"
	}
}
