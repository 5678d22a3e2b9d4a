package middleware

import (
	"context"
	"net/http"

	"github.com/diewo77/fakti/auth"
	"github.com/diewo77/fakti/i18n"
)

// LanguageLookup returns the stored language of a user, or "" when unknown.
type LanguageLookup func(ctx context.Context, userID uint) string

// Prefs resolves the response language (query > cookie > user profile >
// Accept-Language) and stores it in the context. A query-provided language
// is persisted in a cookie for ~30 days. It must run after auth.Middleware.
func Prefs(lookup LanguageLookup) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if c, err := r.Cookie("lang"); err == nil && i18n.Supported(c.Value) {
				lang = c.Value
			}
			if ql := r.URL.Query().Get("lang"); i18n.Supported(ql) {
				lang = ql
				http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: 86400 * 30, HttpOnly: true, SameSite: http.SameSiteLaxMode})
			}
			if lang == "" && lookup != nil {
				if uid, ok := auth.UserIDFromContext(r.Context()); ok {
					if l := lookup(r.Context(), uid); i18n.Supported(l) {
						lang = l
					}
				}
			}
			if lang == "" {
				lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
			}
			next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
		})
	}
}

// LangFrom returns language preference from the request context.
func LangFrom(r *http.Request) string {
	return i18n.LangFromContext(r.Context())
}
