// Package db opens the gorm connection and applies schema migrations.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/fakti/internal/config"
	"github.com/diewo77/fakti/internal/logger"
	"github.com/diewo77/fakti/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const connectAttempts = 5

// NowUTC stamps created_at/updated_at so stored timestamps share one offset.
func NowUTC() time.Time { return time.Now().UTC() }

// Connect opens the configured database. Postgres is retried to give the
// server time to start; sqlite connections enforce foreign keys.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:  logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.LogLevel)),
		NowFunc: NowUTC,
	}

	switch cfg.Driver {
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(SQLiteDSN(cfg.SQLitePath)), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	case "postgres":
		var db *gorm.DB
		var err error
		for i := 0; i < connectAttempts; i++ {
			db, err = gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
			if err == nil {
				break
			}
			log.Warn("database connection failed, retrying",
				zap.Int("attempt", i+1),
				zap.Int("max_attempts", connectAttempts),
				zap.Error(err),
			)
			time.Sleep(2 * time.Second)
		}
		if err != nil {
			return nil, fmt.Errorf("connect postgres after %d attempts: %w", connectAttempts, err)
		}
		log.Info("connected to database",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.String("dbname", cfg.DBName),
			zap.String("user", cfg.User),
		)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

// SQLiteDSN turns a path (or file: URI) into a DSN with foreign keys enabled
// on every pooled connection.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

// Migrate creates or updates the schema from the models.
func Migrate(db *gorm.DB) error {
	for _, m := range models.All() {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// RunSQLMigrations applies the versioned SQL files of dir to a postgres database.
func RunSQLMigrations(databaseURL, dir string) error {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Setup applies the schema the way the configuration asks: versioned SQL
// files for postgres when MIGRATIONS is set, AutoMigrate otherwise.
func Setup(db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	if cfg.App.Migrations && cfg.Database.Driver == "postgres" {
		log.Info("running sql migrations", zap.String("dir", cfg.App.MigrationsDir))
		return RunSQLMigrations(cfg.Database.URL(), cfg.App.MigrationsDir)
	}
	log.Info("running automigrate")
	return Migrate(db)
}

// Ping checks that the database answers.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
