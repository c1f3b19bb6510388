package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"log"
	"net/http"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"atelier/internal/adapters/auth"
	"atelier/internal/adapters/blob"
	emailPkg "atelier/internal/adapters/email"
	web "atelier/internal/adapters/http"
	"atelier/internal/adapters/storage"
	accountStore "atelier/internal/adapters/storage/account"
	auditStore "atelier/internal/adapters/storage/audit"
	contentStore "atelier/internal/adapters/storage/content"
	"atelier/internal/application/orchestrators"
	"atelier/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db, cfg.DBDriver); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully!")

	// Wrap DB with query timing instrumentation
	metricsDB := storage.NewMetricsDB(db)

	tokens, err := auth.NewEditTokenService(jwtSecret(cfg))
	if err != nil {
		log.Fatalf("failed to create token service: %v", err)
	}

	blobs, err := openBlobStore(cfg)
	if err != nil {
		log.Fatalf("failed to open blob store: %v", err)
	}

	acctStore := accountStore.NewSQLStore(metricsDB, cfg.DBDriver)
	stores := &web.Stores{
		AccountStore: acctStore,
		ContentStore: contentStore.NewSQLStore(metricsDB, cfg.DBDriver, tokens, blobs),
		AuditStore:   auditStore.NewSQLStore(metricsDB, cfg.DBDriver),
	}

	// Seed default admin account if it does not exist
	adminEmail := envOrDefault("ATELIER_ADMIN_EMAIL", "admin@atelier.example")
	adminPassword := envOrDefault("ATELIER_ADMIN_PASSWORD", "change me before launch")
	seedDeps := orchestrators.CreateAccountDeps{AccountStore: acctStore}
	if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, adminEmail, adminPassword); err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.ResendAPIKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			log.Println("WARNING: ATELIER_RESEND_API_KEY is not set — email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set ATELIER_RESEND_API_KEY for real delivery)")
		}
	}

	csrfKey, err := cfg.CSRFKey()
	if err != nil {
		log.Fatalf("invalid CSRF key: %v", err)
	}

	opts := web.Options{
		Stores:         stores,
		Sessions:       auth.NewSessionStore(),
		Tokens:         tokens,
		Notifier:       emailPkg.NewNotifier(sender, cfg.AdminEmails),
		CSRFKey:        csrfKey,
		TrustedOrigins: cfg.TrustedOrigins,
		StaticDir:      cfg.StaticDir,
		Secure:         cfg.IsProduction(),
	}
	if blob.Driver(cfg.BlobDriver) == blob.DriverFilesystem {
		opts.UploadsDir = cfg.BlobRoot
		opts.UploadsPrefix = cfg.BlobBaseURL
	}
	mux := web.NewMux(opts)

	log.Printf("Atelier %s starting on %s (env=%s, db=%s)", version, cfg.Addr, cfg.Env, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// openDB opens the configured database. SQLite gets WAL mode, foreign
// keys, and a busy timeout; Postgres uses the DSN as given.
func openDB(cfg config.Config) (*sql.DB, error) {
	dsn := cfg.DBDSN
	if cfg.DBDriver == storage.DriverSQLite {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	return db, nil
}

func openBlobStore(cfg config.Config) (blob.Store, error) {
	switch blob.Driver(cfg.BlobDriver) {
	case blob.DriverMemory:
		return blob.NewMemoryStore(cfg.BlobBaseURL), nil
	case blob.DriverS3:
		return blob.NewS3Store(context.Background(), cfg.S3Bucket, cfg.S3Region, cfg.BlobBaseURL)
	default:
		return blob.NewFilesystemStore(cfg.BlobRoot, cfg.BlobBaseURL)
	}
}

// jwtSecret returns the configured signing secret, generating an
// ephemeral one in development. Edit tokens then stop working across
// restarts, which is acceptable outside production.
func jwtSecret(cfg config.Config) string {
	if cfg.JWTSecret != "" {
		return cfg.JWTSecret
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("failed to generate JWT secret: %v", err)
	}
	log.Println("ATELIER_JWT_SECRET is not set — using an ephemeral signing secret")
	return hex.EncodeToString(buf)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
