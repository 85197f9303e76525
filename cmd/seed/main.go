// Command seed bootstraps a fresh deployment: one outlet and one SUPERADMIN
// account, created in a single transaction. Safe to re-run: it refuses to do
// anything when the superadmin email already exists.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/washpoint/api/internal/config"
	"github.com/washpoint/api/internal/database"
	"github.com/washpoint/api/internal/enum"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()

	email := getenv("SEED_ADMIN_EMAIL", "admin@washpoint.local")
	password := getenv("SEED_ADMIN_PASSWORD", "changeme123")
	outletCode := getenv("SEED_OUTLET_CODE", "HQ")
	outletName := getenv("SEED_OUTLET_NAME", "Main Outlet")

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	queries := database.New(pool)

	if _, err := queries.GetUserByEmail(ctx, email); err == nil {
		log.Printf("superadmin %s already exists, nothing to do", email)
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Fatalf("check superadmin: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	qtx := queries.WithTx(tx)

	outlet, err := qtx.CreateOutlet(ctx, database.CreateOutletParams{
		Code: outletCode,
		Name: outletName,
	})
	if err != nil {
		log.Fatalf("create outlet: %v", err)
	}

	admin, err := qtx.CreateUser(ctx, database.CreateUserParams{
		Email:        email,
		Name:         "Superadmin",
		PasswordHash: string(hash),
		Role:         enum.UserRoleSuperadmin,
		IsActive:     true,
	})
	if err != nil {
		log.Fatalf("create superadmin: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit tx: %v", err)
	}

	log.Printf("seeded outlet %s (%s) and superadmin %s", outlet.Code, outlet.ID, admin.Email)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
