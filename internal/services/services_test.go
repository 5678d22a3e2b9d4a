package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/diewo77/fakti/internal/db"
	"github.com/diewo77/fakti/internal/models"
	"github.com/diewo77/fakti/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{NowFunc: db.NowUTC})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

type fixture struct {
	db       *gorm.DB
	metrics  *observability.Metrics
	invoices *InvoiceService
	clients  *ClientService
	user     models.User
	client   models.Client
}

func newFixture(t *testing.T, opts ...InvoiceOption) *fixture {
	t.Helper()
	gdb := setupDB(t)
	f := &fixture{db: gdb, metrics: observability.NewMetrics()}
	f.invoices = NewInvoiceService(gdb, nil, f.metrics, opts...)
	f.clients = NewClientService(gdb, nil)
	f.user = seedUser(t, gdb, "owner")
	f.client = seedClient(t, gdb, f.user.ID, "Ti Machann")
	return f
}

func seedUser(t *testing.T, gdb *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", Password: "x", Language: models.LanguageCreole}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

func seedClient(t *testing.T, gdb *gorm.DB, userID uint, name string) models.Client {
	t.Helper()
	c := models.Client{UserID: userID, Name: name, Country: models.DefaultCountry}
	require.NoError(t, gdb.Create(&c).Error)
	return c
}

// recalcs returns how many successful recalculations ran so far.
func (f *fixture) recalcs() float64 {
	return testutil.ToFloat64(f.metrics.Recalculations.WithLabelValues(observability.RecalcOK))
}

func (f *fixture) input(tax, discount string) InvoiceInput {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return InvoiceInput{
		ClientID:        f.client.ID,
		IssueDate:       today,
		DueDate:         today.AddDate(0, 0, 30),
		TaxPercent:      dec(tax),
		DiscountPercent: dec(discount),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func item(desc, qty, price string) ItemInput {
	return ItemInput{Description: desc, Quantity: decp(qty), UnitPrice: decp(price)}
}

func requireMoney(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	require.True(t, got.Equal(dec(want)), "%s = %s, want %s", field, got, want)
}
