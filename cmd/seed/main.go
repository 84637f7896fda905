// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the demo admin (admin@example.com) already exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/google/uuid"

	"txdash/internal/config"
	"txdash/internal/db"
	"txdash/internal/filter"
	presetdomain "txdash/internal/preset/domain"
	presetrepo "txdash/internal/preset/repository"
	"txdash/internal/security"
	txdomain "txdash/internal/transaction/domain"
	txrepo "txdash/internal/transaction/repository"
	userdomain "txdash/internal/user/domain"
	userrepo "txdash/internal/user/repository"
)

const (
	adminEmail   = "admin@example.com"
	memberEmail  = "member@example.com"
	demoPassword = "password123"

	transactionCount = 120
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	transactions := txrepo.NewPostgresRepository(conn)
	presets := presetrepo.NewPostgresRepository(conn)

	if _, err := users.GetByEmail(ctx, adminEmail); err == nil {
		log.Println("Seed already applied (admin@example.com exists). Skipping.")
		os.Exit(0)
	} else if !errors.Is(err, userrepo.ErrNotFound) {
		log.Fatalf("seed check: %v", err)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(demoPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	admin := &userdomain.User{
		ID:           uuid.New().String(),
		Name:         "Demo Admin",
		Email:        adminEmail,
		Role:         userdomain.RoleAdmin,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		log.Fatalf("create admin: %v", err)
	}
	member := &userdomain.User{
		ID:           uuid.New().String(),
		Name:         "Demo Member",
		Email:        memberEmail,
		Role:         userdomain.RoleUser,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	if err := users.Create(ctx, member); err != nil {
		log.Fatalf("create member: %v", err)
	}

	rng := rand.New(rand.NewSource(now.UnixNano()))
	for i := 0; i < transactionCount; i++ {
		t := txdomain.Transaction{
			ID:            uuid.New().String(),
			TransactionID: fmt.Sprintf("TXN-%05d", i+1),
			UserName:      faker.Name(),
			Status:        txdomain.AllStatuses[rng.Intn(len(txdomain.AllStatuses))],
			Amount:        float64(rng.Intn(500000)) / 100,
			Date:          now.AddDate(0, 0, -rng.Intn(365)).Format("2006-01-02"),
		}
		if err := transactions.Create(ctx, &t); err != nil {
			log.Fatalf("create transaction %s: %v", t.TransactionID, err)
		}
	}

	minLarge := 1000.0
	seedPresets := []presetdomain.Preset{
		{
			ID:   uuid.New().String(),
			Name: "Pending review",
			Filters: filter.Model{
				Status: []txdomain.Status{txdomain.StatusPending},
			},
		},
		{
			ID:   uuid.New().String(),
			Name: "Large failures",
			Filters: filter.Model{
				Status:    []txdomain.Status{txdomain.StatusFailed},
				MinAmount: &minLarge,
			},
		},
	}
	for i := range seedPresets {
		if err := presets.Create(ctx, admin.ID, &seedPresets[i]); err != nil {
			log.Fatalf("create preset %q: %v", seedPresets[i].Name, err)
		}
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / %s\n", adminEmail, demoPassword)
	fmt.Printf("Member login: %s / %s\n", memberEmail, demoPassword)
}
