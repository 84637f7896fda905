// server runs the dashboard REST API: auth, transactions, filter
// presets, and the admin audit trail.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"txdash/internal/audit"
	auditrepo "txdash/internal/audit/repository"
	"txdash/internal/config"
	"txdash/internal/db"
	"txdash/internal/db/migrate"
	"txdash/internal/policy/engine"
	presetrepo "txdash/internal/preset/repository"
	"txdash/internal/security"
	"txdash/internal/server"
	"txdash/internal/telemetry/otel"
	txrepo "txdash/internal/transaction/repository"
	userdomain "txdash/internal/user/domain"
	userrepo "txdash/internal/user/repository"

	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate: %v", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "txdash-api", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	users := userrepo.NewPostgresRepository(conn)
	transactions := txrepo.NewPostgresRepository(conn)
	presets := presetrepo.NewPostgresRepository(conn)
	audits := auditrepo.NewPostgresRepository(conn)

	policy, err := engine.NewOPAEvaluator("")
	if err != nil {
		log.Fatalf("policy: %v", err)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	if cfg.Env == "development" {
		if err := ensureDemoUser(ctx, users, hasher); err != nil {
			log.Fatalf("demo user: %v", err)
		}
	}

	srv, err := server.New(server.Deps{
		Users:          users,
		Transactions:   transactions,
		Presets:        presets,
		AuditRepo:      audits,
		AuditLog:       audit.NewLogger(audits, otel.NewAuditEmitter(providers.LoggerProvider)),
		Hasher:         hasher,
		Tokens:         tokens,
		Policy:         policy,
		TracerProvider: providers.TracerProvider,
		MeterProvider:  providers.MeterProvider,
	})
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("API server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("API server stopped")
}

// ensureDemoUser creates the development admin login if it does not
// exist yet. Idempotent across restarts.
func ensureDemoUser(ctx context.Context, users userrepo.Repository, hasher *security.Hasher) error {
	const demoEmail = "admin@example.com"

	_, err := users.GetByEmail(ctx, demoEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, userrepo.ErrNotFound) {
		return err
	}

	hash, err := hasher.Hash([]byte("password123"))
	if err != nil {
		return err
	}
	if err := users.Create(ctx, &userdomain.User{
		ID:           uuid.New().String(),
		Name:         "Demo Admin",
		Email:        demoEmail,
		Role:         userdomain.RoleAdmin,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		return err
	}
	log.Printf("demo login: %s / password123", demoEmail)
	return nil
}
