// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Log      LogConfig
	Auth     AuthConfig
	PDF      PDFConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the connection settings. Driver is postgres or sqlite.
type DatabaseConfig struct {
	Driver     string `envconfig:"DB_DRIVER" default:"postgres"`
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       int    `envconfig:"DB_PORT" default:"5432"`
	User       string `envconfig:"DB_USER" default:"fakti"`
	Password   string `envconfig:"DB_PASSWORD" default:"fakti"`
	DBName     string `envconfig:"DB_NAME" default:"fakti"`
	SSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"fakti.db"`
	LogLevel   string `envconfig:"DB_LOG_LEVEL" default:"warn"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env           string `envconfig:"APP_ENV" default:"development"`
	Migrations    bool   `envconfig:"MIGRATIONS" default:"false"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"migrations"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"console"`
	Output string `envconfig:"LOG_OUTPUT" default:"stdout"`
}

// AuthConfig holds session and rate limit settings.
type AuthConfig struct {
	SessionSecret  string        `envconfig:"SESSION_SECRET" default:"devsessionsecret"`
	LoginRateLimit int           `envconfig:"LOGIN_RATE_LIMIT" default:"10"`
	LoginRateEvery time.Duration `envconfig:"LOGIN_RATE_WINDOW" default:"1m"`
}

// PDFConfig enables the PDF renderer.
type PDFConfig struct {
	Enabled bool `envconfig:"PDF_ENABLED" default:"true"`
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.App.Env == "production"
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.IsProduction() && c.Auth.SessionSecret == "devsessionsecret" {
		return errors.New("SESSION_SECRET must be set in production")
	}
	if c.Auth.LoginRateLimit <= 0 {
		return errors.New("LOGIN_RATE_LIMIT must be positive")
	}
	return nil
}
