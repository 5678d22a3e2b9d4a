package services

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/fakti/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.clients.Create(ctx, f.user.ID, ClientInput{Name: "  Boutik Mari  ", Email: "mari@example.com", City: "Jacmel"})
	require.NoError(t, err)
	assert.Equal(t, "Boutik Mari", c.Name)
	assert.Equal(t, models.DefaultCountry, c.Country)
	assert.Equal(t, f.user.ID, c.UserID)
	assert.Zero(t, c.InvoicesCount)
	assert.True(t, c.TotalBilled.IsZero())
}

func TestClientCreate_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.clients.Create(context.Background(), f.user.ID, ClientInput{Name: "   ", Email: "not-an-email"})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "required", verr.Violations["name"])
	assert.Equal(t, "invalid_email", verr.Violations["email"])
}

func TestClientGet_DerivedFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.invoices.Create(ctx, f.user.ID, f.input("10", "5"), []ItemInput{item("a", "2", "50")})
	require.NoError(t, err)
	_, err = f.invoices.Create(ctx, f.user.ID, f.input("0", "0"), []ItemInput{item("b", "1", "20.25")})
	require.NoError(t, err)

	c, err := f.clients.Get(ctx, f.user.ID, f.client.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, c.InvoicesCount)
	requireMoney(t, "125.25", c.TotalBilled, "total_billed")

	list, err := f.clients.List(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 2, list[0].InvoicesCount)
}

func TestClient_OwnershipScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := seedUser(t, f.db, "other")

	_, err := f.clients.Get(ctx, other.ID, f.client.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.clients.Update(ctx, other.ID, f.client.ID, ClientInput{Name: "Hijack"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.clients.Delete(ctx, other.ID, f.client.ID), ErrNotFound)

	list, err := f.clients.List(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	c, err := f.clients.Get(ctx, f.user.ID, f.client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ti Machann", c.Name)
}

func TestClientUpdate(t *testing.T) {
	f := newFixture(t)

	c, err := f.clients.Update(context.Background(), f.user.ID, f.client.ID, ClientInput{
		Name:    "Ti Machann Lakay",
		Phone:   "+509 3700 0000",
		Country: "Dominican Republic",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ti Machann Lakay", c.Name)
	assert.Equal(t, "+509 3700 0000", c.Phone)
	assert.Equal(t, "Dominican Republic", c.Country)
}

func TestClientDelete_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keep := seedClient(t, f.db, f.user.ID, "Keep")

	_, err := f.invoices.Create(ctx, f.user.ID, f.input("0", "0"), []ItemInput{item("a", "1", "1"), item("b", "1", "2")})
	require.NoError(t, err)
	in := f.input("0", "0")
	in.ClientID = keep.ID
	kept, err := f.invoices.Create(ctx, f.user.ID, in, []ItemInput{item("c", "1", "3")})
	require.NoError(t, err)

	require.NoError(t, f.clients.Delete(ctx, f.user.ID, f.client.ID))

	_, err = f.clients.Get(ctx, f.user.ID, f.client.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var invoices, items int64
	f.db.Model(&models.Invoice{}).Count(&invoices)
	f.db.Model(&models.InvoiceItem{}).Count(&items)
	assert.EqualValues(t, 1, invoices)
	assert.EqualValues(t, 1, items)

	got, err := f.invoices.Get(ctx, f.user.ID, kept.ID)
	require.NoError(t, err)
	requireMoney(t, "3", got.Total, "total")
}

func TestClientRecent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		seedClient(t, f.db, f.user.ID, name)
	}

	recent, err := f.clients.Recent(ctx, f.user.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "C", recent[0].Name)
	assert.Equal(t, "B", recent[1].Name)
}
