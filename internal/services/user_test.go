package services

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/fakti/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUsers(t *testing.T) (*UserService, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewUserService(f.db, nil).WithHashCost(bcrypt.MinCost), f
}

func register(username string) RegisterInput {
	return RegisterInput{
		Username:        username,
		Email:           username + "@lakay.ht",
		Password:        "sekrè-2025",
		PasswordConfirm: "sekrè-2025",
	}
}

func TestRegister(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	in := register("jean")
	in.Email = "  Jean@Lakay.HT "
	u, err := users.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "jean", u.Username)
	assert.Equal(t, "jean@lakay.ht", u.Email)
	assert.Equal(t, models.LanguageCreole, u.Language)
	assert.NotEqual(t, "sekrè-2025", u.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("sekrè-2025")))
}

func TestRegister_Validation(t *testing.T) {
	users, _ := newUsers(t)

	_, err := users.Register(context.Background(), RegisterInput{
		Email:           "nope",
		Password:        "short",
		PasswordConfirm: "other",
		Language:        "fr",
	})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "required", verr.Violations["username"])
	assert.Equal(t, "invalid_email", verr.Violations["email"])
	assert.Equal(t, "too_short", verr.Violations["password"])
	assert.Equal(t, "mismatch", verr.Violations["password_confirm"])
	assert.Equal(t, "invalid_choice", verr.Violations["language"])
}

func TestRegister_Taken(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()

	_, err := users.Register(ctx, register("jean"))
	require.NoError(t, err)

	dup := register("jean")
	dup.Email = "autre@lakay.ht"
	_, err = users.Register(ctx, dup)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "taken", verr.Violations["username"])

	dup = register("pierre")
	dup.Email = "jean@lakay.ht"
	_, err = users.Register(ctx, dup)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "taken", verr.Violations["email"])
}

func TestAuthenticate(t *testing.T) {
	users, _ := newUsers(t)
	ctx := context.Background()
	created, err := users.Register(ctx, register("jean"))
	require.NoError(t, err)

	u, err := users.Authenticate(ctx, "jean", "sekrè-2025")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	u, err = users.Authenticate(ctx, "JEAN@lakay.ht", "sekrè-2025")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)

	_, err = users.Authenticate(ctx, "jean", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = users.Authenticate(ctx, "nobody", "sekrè-2025")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	users, f := newUsers(t)
	ctx := context.Background()

	u, err := users.UpdateProfile(ctx, f.user.ID, ProfileInput{
		FirstName:    "Marie",
		LastName:     "Joseph",
		Email:        "Marie@Example.com",
		BusinessName: "Kay Marie",
		Language:     models.LanguageEnglish,
	})
	require.NoError(t, err)
	assert.Equal(t, "marie@example.com", u.Email)
	assert.Equal(t, "Kay Marie", u.DisplayName())
	assert.Equal(t, models.LanguageEnglish, u.Language)

	// keeping the own email is allowed
	_, err = users.UpdateProfile(ctx, f.user.ID, ProfileInput{Email: "marie@example.com"})
	require.NoError(t, err)

	other := seedUser(t, f.db, "other")
	_, err = users.UpdateProfile(ctx, other.ID, ProfileInput{Email: "marie@example.com"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "taken", verr.Violations["email"])

	_, err = users.UpdateProfile(ctx, 9999, ProfileInput{Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserDelete_Cascades(t *testing.T) {
	users, f := newUsers(t)
	ctx := context.Background()
	_, err := f.invoices.Create(ctx, f.user.ID, f.input("0", "0"), []ItemInput{item("a", "1", "1")})
	require.NoError(t, err)
	other := seedUser(t, f.db, "other")
	seedClient(t, f.db, other.ID, "Survivor")

	require.NoError(t, users.Delete(ctx, f.user.ID))
	assert.False(t, users.Exists(ctx, f.user.ID))
	assert.True(t, users.Exists(ctx, other.ID))

	var clients, invoices, items int64
	f.db.Model(&models.Client{}).Count(&clients)
	f.db.Model(&models.Invoice{}).Count(&invoices)
	f.db.Model(&models.InvoiceItem{}).Count(&items)
	assert.EqualValues(t, 1, clients)
	assert.Zero(t, invoices)
	assert.Zero(t, items)

	assert.ErrorIs(t, users.Delete(ctx, f.user.ID), ErrNotFound)
}
