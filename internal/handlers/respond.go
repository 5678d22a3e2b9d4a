// Package handlers exposes the services over JSON HTTP endpoints.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/fakti/auth"
	"github.com/diewo77/fakti/httpx"
	"github.com/diewo77/fakti/i18n"
	"github.com/diewo77/fakti/internal/billing"
	"github.com/diewo77/fakti/internal/logger"
	"github.com/diewo77/fakti/internal/pdf"
	"github.com/diewo77/fakti/internal/services"
	"github.com/diewo77/fakti/validation"
	"go.uber.org/zap"
)

// DateLayout is the wire format of issue and due dates.
const DateLayout = "2006-01-02"

// FieldError is one entry of a validation_failed response.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	httpx.JSON(w, status, payload)
}

func writeCode(w http.ResponseWriter, r *http.Request, status int, code string) {
	httpx.JSONErrorMessage(w, status, code, i18n.T(i18n.LangFromContext(r.Context()), code), nil)
}

func writeViolations(w http.ResponseWriter, r *http.Request, v validation.Violations) {
	lang := i18n.LangFromContext(r.Context())
	details := make(map[string]FieldError, len(v))
	for field, code := range v {
		details[field] = FieldError{Code: code, Message: i18n.T(lang, code)}
	}
	httpx.JSONErrorMessage(w, http.StatusBadRequest, "validation_failed", i18n.T(lang, "validation_failed"), details)
}

// writeError maps service errors to HTTP responses. Unknown errors are
// logged and reported as internal_error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	var inconsistent *billing.InconsistentStateError
	switch {
	case errors.As(err, &verr):
		writeViolations(w, r, verr.Violations)
	case errors.Is(err, services.ErrNotFound):
		writeCode(w, r, http.StatusNotFound, "not_found")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeCode(w, r, http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, pdf.ErrUnavailable):
		writeCode(w, r, http.StatusServiceUnavailable, "pdf_unavailable")
	case errors.As(err, &inconsistent):
		logger.FromContext(r.Context()).Error("inconsistent invoice state",
			zap.Uint("invoice_id", inconsistent.InvoiceID),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeCode(w, r, http.StatusInternalServerError, "internal_error")
	default:
		logger.FromContext(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeCode(w, r, http.StatusInternalServerError, "internal_error")
	}
}

// decode reads the JSON body into dst and answers 400 invalid_json on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.Decode(r, dst); err != nil {
		writeCode(w, r, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

// pathID parses a numeric path value. Malformed ids are reported as not found.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id == 0 {
		writeCode(w, r, http.StatusNotFound, "not_found")
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional numeric query parameter; malformed values read as 0.
func queryID(r *http.Request, name string) uint {
	id, err := strconv.ParseUint(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func userID(r *http.Request) uint {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}

// parseDate reads a YYYY-MM-DD value. Empty values stay zero.
func parseDate(field, value string, v validation.Violations) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		v.Add(field, "invalid_date")
		return time.Time{}
	}
	return t
}
