package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	v := make(Violations)
	Required("name", "  ", v)
	Required("email", "a@b.c", v)
	assert.Equal(t, Violations{"name": "required"}, v)
}

func TestAddKeepsFirstCode(t *testing.T) {
	v := make(Violations)
	v.Add("quantity", "required")
	v.Add("quantity", "must_not_be_negative")
	assert.Equal(t, "required", v["quantity"])
}

func TestDecimalValidators(t *testing.T) {
	tests := []struct {
		name string
		run  func(Violations)
		want string
	}{
		{"negative", func(v Violations) { NonNegativeDecimal("q", decimal.NewFromInt(-1), v) }, "must_not_be_negative"},
		{"zero ok", func(v Violations) { NonNegativeDecimal("q", decimal.Zero, v) }, ""},
		{"percent over", func(v Violations) { PercentDecimal("p", decimal.NewFromInt(101), v) }, "out_of_range"},
		{"percent ok", func(v Violations) { PercentDecimal("p", decimal.RequireFromString("12.5"), v) }, ""},
		{"percent places", func(v Violations) { PercentDecimal("p", decimal.RequireFromString("12.555"), v) }, "too_many_decimals"},
		{"digits overflow", func(v Violations) { MaxDigits("p", decimal.NewFromInt(100000000), 10, 2, v) }, "out_of_range"},
		{"digits fit", func(v Violations) { MaxDigits("p", decimal.RequireFromString("99999999.99"), 10, 2, v) }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := make(Violations)
			tt.run(v)
			if tt.want == "" {
				assert.True(t, v.Empty(), "unexpected %v", v)
				return
			}
			for _, code := range v {
				assert.Equal(t, tt.want, code)
			}
		})
	}
}

type signup struct {
	Username string `json:"username" validate:"required,max=10"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"password_confirm" validate:"eqfield=Password"`
	Language string `json:"language" validate:"omitempty,oneof=ht en"`
}

func TestStruct(t *testing.T) {
	v := Struct(signup{Username: "averyveryverylongname", Email: "nope", Password: "short", Confirm: "other", Language: "fr"})
	assert.Equal(t, Violations{
		"username":         "too_long",
		"email":            "invalid_email",
		"password":         "too_short",
		"password_confirm": "mismatch",
		"language":         "invalid_choice",
	}, v)

	ok := Struct(signup{Username: "jean", Email: "jean@example.com", Password: "longenough", Confirm: "longenough"})
	assert.True(t, ok.Empty())
}

func TestPrefixed(t *testing.T) {
	v := Violations{"description": "required"}
	assert.Equal(t, Violations{"items[1].description": "required"}, v.Prefixed("items[1]."))
}
