package i18n

import (
	"context"
	"strings"
)

// Default is the language used when nothing better is known.
const Default = "ht"

var translations = map[string]map[string]string{
	"ht": {
		"required":             "Obligatwa",
		"too_long":             "Twò long",
		"too_short":            "Twò kout",
		"invalid_email":        "Imèl pa valid",
		"invalid_choice":       "Chwa pa valid",
		"mismatch":             "Yo pa menm",
		"must_not_be_negative": "Pa ka negatif",
		"out_of_range":         "Valè a depase limit yo",
		"too_many_decimals":    "Twòp chif apre vigil",
		"taken":                "Deja itilize",
		"invalid":              "Pa valid",
		"invalid_date":         "Dat la dwe sou fòma AAAA-MM-JJ",
		"validation_failed":    "Kèk chan pa valid",
		"not_found":            "Nou pa jwenn li",
		"unauthorized":         "Ou dwe konekte",
		"invalid_credentials":  "Non itilizatè oswa modpas pa bon",
		"invalid_json":         "Done yo pa byen fòme",
		"internal_error":       "Gen yon erè sou sèvè a",
		"pdf_unavailable":      "Jenerasyon PDF pa disponib",
		"rate_limited":         "Twòp tantativ, eseye ankò pita",
		"pdf.invoice":          "Fakti",
		"pdf.bill_to":          "Pou",
		"pdf.issue_date":       "Dat",
		"pdf.due_date":         "Dat limit",
		"pdf.status":           "Eta",
		"pdf.description":      "Deskripsyon",
		"pdf.quantity":         "Kantite",
		"pdf.unit_price":       "Pri inite",
		"pdf.line_total":       "Total",
		"pdf.subtotal":         "Sou-total",
		"pdf.tax":              "Taks",
		"pdf.discount":         "Rabè",
		"pdf.total":            "Total",
		"pdf.notes":            "Nòt",
		"pdf.tax_id":           "Nimewo fiskal",
	},
	"en": {
		"required":             "Required",
		"too_long":             "Too long",
		"too_short":            "Too short",
		"invalid_email":        "Invalid email",
		"invalid_choice":       "Invalid choice",
		"mismatch":             "Does not match",
		"must_not_be_negative": "Must not be negative",
		"out_of_range":         "Out of range",
		"too_many_decimals":    "Too many decimal places",
		"taken":                "Already taken",
		"invalid":              "Invalid",
		"invalid_date":         "Date must use the YYYY-MM-DD format",
		"validation_failed":    "Some fields are invalid",
		"not_found":            "Not found",
		"unauthorized":         "Authentication required",
		"invalid_credentials":  "Invalid username or password",
		"invalid_json":         "Malformed request body",
		"internal_error":       "Internal server error",
		"pdf_unavailable":      "PDF generation is unavailable",
		"rate_limited":         "Too many attempts, try again later",
		"pdf.invoice":          "Invoice",
		"pdf.bill_to":          "Bill to",
		"pdf.issue_date":       "Issue date",
		"pdf.due_date":         "Due date",
		"pdf.status":           "Status",
		"pdf.description":      "Description",
		"pdf.quantity":         "Quantity",
		"pdf.unit_price":       "Unit price",
		"pdf.line_total":       "Amount",
		"pdf.subtotal":         "Subtotal",
		"pdf.tax":              "Tax",
		"pdf.discount":         "Discount",
		"pdf.total":            "Total",
		"pdf.notes":            "Notes",
		"pdf.tax_id":           "Tax ID",
	},
}

// Supported reports whether lang has a translation table.
func Supported(lang string) bool {
	_, ok := translations[lang]
	return ok
}

// DetectLanguage picks the first supported language of an Accept-Language
// header, falling back to Default.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" {
			continue
		}
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if Supported(base) {
			return base
		}
	}
	return Default
}

// T translates code into lang. Unknown languages use Default; unknown codes
// are returned as is.
func T(lang, code string) string {
	if msg, ok := translations[lang][code]; ok {
		return msg
	}
	if msg, ok := translations[Default][code]; ok {
		return msg
	}
	return code
}

// Messages translates every code of a field→code map.
func Messages(lang string, codes map[string]string) map[string]string {
	out := make(map[string]string, len(codes))
	for field, code := range codes {
		out[field] = T(lang, code)
	}
	return out
}

type ctxKey struct{}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext returns the request language or Default.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(ctxKey{}).(string); ok && Supported(lang) {
		return lang
	}
	return Default
}
