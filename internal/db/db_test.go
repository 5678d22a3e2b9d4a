package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/diewo77/fakti/internal/config"
	"github.com/diewo77/fakti/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "fakti.db?_foreign_keys=on", SQLiteDSN("fakti.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", SQLiteDSN("file:x?mode=memory"))
	assert.Equal(t, "a.db?_foreign_keys=off", SQLiteDSN("a.db?_foreign_keys=off"))
}

func TestConnectAndMigrate_SQLite(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		LogLevel:   "silent",
	}
	db, err := Connect(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, Ping(context.Background(), db))

	for _, table := range []string{"users", "clients", "invoices", "invoice_items"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)

	// An item pointing at a missing invoice is rejected.
	err = db.Create(&models.InvoiceItem{InvoiceID: 999, Description: "x"}).Error
	assert.Error(t, err)
}

func TestSetup_AutoMigrateForSQLite(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
			LogLevel:   "silent",
		},
		App: config.AppConfig{Migrations: true, MigrationsDir: "migrations"},
	}
	db, err := Connect(cfg.Database, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Setup(db, cfg, zap.NewNop()))
	assert.True(t, db.Migrator().HasTable("invoice_items"))
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}
