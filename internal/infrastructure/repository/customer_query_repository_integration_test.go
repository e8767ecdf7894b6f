package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
	"github.com/acme-corp/customer-import/internal/infrastructure/repository"
)

func openTestCustomerDB(t *testing.T) *gorm.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}

	schemaSQL := `
    CREATE TABLE IF NOT EXISTS customers (
      id BIGSERIAL PRIMARY KEY,
      customer_id TEXT NOT NULL UNIQUE,
      first_name TEXT,
      last_name TEXT,
      email TEXT,
      company TEXT,
      city TEXT,
      country TEXT,
      phone1 TEXT,
      phone2 TEXT,
      website TEXT,
      about_customer TEXT,
      subscription_date TIMESTAMPTZ,
      created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
      updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );
    DELETE FROM customers;
    `
	if err := db.Exec(schemaSQL).Error; err != nil {
		t.Fatalf("failed schema setup: %v", err)
	}
	return db
}

func TestCustomerQueryRepositoryGetByIdentifierIntegration(t *testing.T) {
	db := openTestCustomerDB(t)
	repo := repository.NewCustomerQueryRepository(db)

	if err := db.Exec(`INSERT INTO customers (customer_id, first_name, email) VALUES (?, ?, ?)`,
		"C100", "Nina", "nina@example.com").Error; err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := repo.GetByIdentifier(context.Background(), "C100")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.FirstName != "Nina" {
		t.Fatalf("unexpected first name: %q", got.FirstName)
	}

	_, err = repo.GetByIdentifier(context.Background(), "does-not-exist")
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestCustomerQueryRepositoryRecentSinceIntegration(t *testing.T) {
	db := openTestCustomerDB(t)
	repo := repository.NewCustomerQueryRepository(db)

	if err := db.Exec(`INSERT INTO customers (customer_id, first_name, email) VALUES (?, ?, ?), (?, ?, ?)`,
		"C200", "Omar", "omar@example.com",
		"C201", "Priya", "priya@example.com",
	).Error; err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	recent, err := repo.RecentSince(context.Background(), time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("recent since failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent customers, got %d", len(recent))
	}
}
