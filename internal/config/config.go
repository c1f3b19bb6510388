// Package config loads the server configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"

	"github.com/caarlos0/env/v11"

	"atelier/internal/adapters/blob"
	"atelier/internal/adapters/storage"
	"atelier/internal/domain/bilingual"
)

// Config holds every tunable the server reads from the environment.
type Config struct {
	Addr      string `env:"ATELIER_ADDR" envDefault:":8080"`
	Env       string `env:"ATELIER_ENV" envDefault:"development"`
	StaticDir string `env:"ATELIER_STATIC_DIR" envDefault:"web/static"`

	DBDriver string `env:"ATELIER_DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"ATELIER_DB_DSN" envDefault:"atelier.db"`

	BlobDriver  string `env:"ATELIER_BLOB_DRIVER" envDefault:"filesystem"`
	BlobRoot    string `env:"ATELIER_BLOB_ROOT" envDefault:"data/uploads"`
	BlobBaseURL string `env:"ATELIER_BLOB_BASE_URL" envDefault:"/uploads/"`
	S3Bucket    string `env:"ATELIER_S3_BUCKET"`
	S3Region    string `env:"ATELIER_S3_REGION"`

	CSRFKeyHex string `env:"ATELIER_CSRF_KEY"`
	JWTSecret  string `env:"ATELIER_JWT_SECRET"`

	ResendAPIKey string   `env:"ATELIER_RESEND_API_KEY"`
	EmailFrom    string   `env:"ATELIER_EMAIL_FROM" envDefault:"Atelier <noreply@atelier.example>"`
	AdminEmails  []string `env:"ATELIER_ADMIN_EMAILS" envSeparator:","`

	TrustedOrigins []string `env:"ATELIER_TRUSTED_ORIGINS" envSeparator:"," envDefault:"localhost:8080,127.0.0.1:8080"`

	DefaultLang string `env:"ATELIER_DEFAULT_LANG" envDefault:"he"`
}

// Load parses the environment and validates cross-field constraints.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the server runs with production hardening.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// CSRFKey decodes the hex-encoded CSRF secret, or nil when unset.
func (c Config) CSRFKey() ([]byte, error) {
	if c.CSRFKeyHex == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.CSRFKeyHex)
	if err != nil || len(key) != 32 {
		return nil, fmt.Errorf("ATELIER_CSRF_KEY must be 64 hex characters (32 bytes)")
	}
	return key, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return fmt.Errorf("unknown db driver %q", c.DBDriver)
	}
	switch blob.Driver(c.BlobDriver) {
	case blob.DriverMemory, blob.DriverFilesystem:
	case blob.DriverS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("ATELIER_S3_BUCKET is required with the s3 blob driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.BlobDriver)
	}
	if _, ok := bilingual.ParseLang(c.DefaultLang); !ok {
		return fmt.Errorf("unknown default language %q", c.DefaultLang)
	}
	if c.IsProduction() {
		if c.CSRFKeyHex == "" {
			return fmt.Errorf("ATELIER_CSRF_KEY is required in production")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("ATELIER_JWT_SECRET is required in production")
		}
	}
	return nil
}
