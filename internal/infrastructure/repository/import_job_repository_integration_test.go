package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
	"github.com/acme-corp/customer-import/internal/infrastructure/repository"
)

func openTestJobDB(t *testing.T) *gorm.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}

	schemaSQL := `
    CREATE TABLE IF NOT EXISTS import_jobs (
      id UUID PRIMARY KEY,
      file_path TEXT NOT NULL,
      status TEXT NOT NULL,
      bytes_read BIGINT NOT NULL DEFAULT 0,
      rows_processed BIGINT NOT NULL DEFAULT 0,
      rows_inserted BIGINT NOT NULL DEFAULT 0,
      last_row_hash TEXT,
      error TEXT,
      started_at TIMESTAMPTZ NOT NULL,
      completed_at TIMESTAMPTZ,
      updated_at TIMESTAMPTZ NOT NULL
    );
    DELETE FROM import_jobs;
    `
	if err := db.Exec(schemaSQL).Error; err != nil {
		t.Fatalf("failed schema setup: %v", err)
	}
	return db
}

func TestImportJobRepositoryCreateAndFindIntegration(t *testing.T) {
	db := openTestJobDB(t)
	repo := repository.NewImportJobRepository(db)

	job, err := repo.Create(context.Background(), "11111111-1111-1111-1111-111111111111", "customers.csv")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if job.Status != domain.JobRunning {
		t.Fatalf("expected job to start RUNNING, got %s", job.Status)
	}

	running, err := repo.FindLatestRunning(context.Background())
	if err != nil {
		t.Fatalf("find latest running failed: %v", err)
	}
	if running == nil || running.ID != job.ID {
		t.Fatalf("expected to find the job just created as running")
	}

	if err := repo.UpdateProgress(context.Background(), job.ID, domain.CheckpointUpdate{
		BytesRead: 4096, RowsProcessed: 50, RowsInserted: 48, LastRowHash: "abc123",
	}); err != nil {
		t.Fatalf("update progress failed: %v", err)
	}

	reloaded, err := repo.FindByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("find by id failed: %v", err)
	}
	if reloaded.BytesRead != 4096 || reloaded.RowsProcessed != 50 || reloaded.LastRowHash != "abc123" {
		t.Fatalf("unexpected checkpoint after update: %+v", reloaded)
	}

	if err := repo.MarkCompleted(context.Background(), job.ID); err != nil {
		t.Fatalf("mark completed failed: %v", err)
	}

	completed, err := repo.FindByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("find by id after completion failed: %v", err)
	}
	if completed.Status != domain.JobCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected completed job with CompletedAt set, got %+v", completed)
	}

	noneRunning, err := repo.FindLatestRunning(context.Background())
	if err != nil {
		t.Fatalf("find latest running after completion failed: %v", err)
	}
	if noneRunning != nil {
		t.Fatalf("expected no running job after completion, got %+v", noneRunning)
	}
}

func TestImportJobRepositoryMarkFailedIntegration(t *testing.T) {
	db := openTestJobDB(t)
	repo := repository.NewImportJobRepository(db)

	job, err := repo.Create(context.Background(), "22222222-2222-2222-2222-222222222222", "customers.csv")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.MarkFailed(context.Background(), job.ID, "disk read error"); err != nil {
		t.Fatalf("mark failed failed: %v", err)
	}

	failed, err := repo.FindByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("find by id failed: %v", err)
	}
	if failed.Status != domain.JobFailed || failed.Error != "disk read error" {
		t.Fatalf("unexpected job after failure: %+v", failed)
	}
}

func TestImportJobRepositoryFindByIDNotFoundIntegration(t *testing.T) {
	db := openTestJobDB(t)
	repo := repository.NewImportJobRepository(db)

	_, err := repo.FindByID(context.Background(), "33333333-3333-3333-3333-333333333333")
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
