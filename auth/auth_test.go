package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionRequest(t *testing.T, userID uint) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	CreateSession(rec, userID)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() { SetSecret("") })

	uid, ok := ParseSession(sessionRequest(t, 42))
	require.True(t, ok)
	assert.Equal(t, uint(42), uid)
}

func TestParseSession_Tampered(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() { SetSecret("") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "42.forged"})
	_, ok := ParseSession(req)
	assert.False(t, ok)

	signed := sessionRequest(t, 42)
	SetSecret("rotated")
	_, ok = ParseSession(signed)
	assert.False(t, ok, "a different secret invalidates existing sessions")
}

func TestRequireAuth(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() {
		SetSecret("")
		SetUserVerifier(nil)
	})

	var seen uint
	h := Middleware(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, sessionRequest(t, 7))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uint(7), seen)

	SetUserVerifier(func(ctx context.Context, uid uint) bool { return uid != 7 })
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, sessionRequest(t, 7))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies())
	assert.Empty(t, rec.Result().Cookies()[0].Value, "stale session is cleared")
}
