package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
	"github.com/acme-corp/customer-import/internal/infrastructure/db/models"
)

// ImportJobRepository is the Job Store (C5): a plain table of ImportJob
// rows. Singleton-running enforcement is the Worker Supervisor's job, not
// the schema's.
type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Create(ctx context.Context, id, filePath string) (*domain.ImportJob, error) {
	now := time.Now().UTC()
	row := models.ImportJob{
		ID:        id,
		FilePath:  filePath,
		Status:    string(domain.JobRunning),
		StartedAt: now,
		UpdatedAt: now,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}

	return toDomainJob(row), nil
}

func (r *ImportJobRepository) FindLatestRunning(ctx context.Context) (*domain.ImportJob, error) {
	var row models.ImportJob
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.JobRunning)).
		Order("started_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest running job: %w", err)
	}
	return toDomainJob(row), nil
}

func (r *ImportJobRepository) FindLatest(ctx context.Context) (*domain.ImportJob, error) {
	var row models.ImportJob
	err := r.db.WithContext(ctx).Order("updated_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest job: %w", err)
	}
	return toDomainJob(row), nil
}

func (r *ImportJobRepository) FindByID(ctx context.Context, id string) (*domain.ImportJob, error) {
	var row models.ImportJob
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	return toDomainJob(row), nil
}

// UpdateProgress writes bytesRead, rowsProcessed, rowsInserted and
// lastRowHash together so a resume always observes a consistent checkpoint.
func (r *ImportJobRepository) UpdateProgress(ctx context.Context, id string, checkpoint domain.CheckpointUpdate) error {
	result := r.db.WithContext(ctx).Model(&models.ImportJob{}).Where("id = ?", id).Updates(map[string]any{
		"bytes_read":     checkpoint.BytesRead,
		"rows_processed": checkpoint.RowsProcessed,
		"rows_inserted":  checkpoint.RowsInserted,
		"last_row_hash":  checkpoint.LastRowHash,
		"updated_at":     time.Now().UTC(),
	})
	if result.Error != nil {
		return fmt.Errorf("update job progress: %w", result.Error)
	}
	return nil
}

func (r *ImportJobRepository) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.ImportJob{}).Where("id = ?", id).Updates(map[string]any{
		"status":       string(domain.JobCompleted),
		"completed_at": now,
		"updated_at":   now,
	})
	if result.Error != nil {
		return fmt.Errorf("mark job completed: %w", result.Error)
	}
	return nil
}

func (r *ImportJobRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.ImportJob{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(domain.JobFailed),
		"error":      reason,
		"updated_at": now,
	})
	if result.Error != nil {
		return fmt.Errorf("mark job failed: %w", result.Error)
	}
	return nil
}

func toDomainJob(row models.ImportJob) *domain.ImportJob {
	return &domain.ImportJob{
		ID:            row.ID,
		FilePath:      row.FilePath,
		Status:        domain.JobStatus(row.Status),
		BytesRead:     row.BytesRead,
		RowsProcessed: row.RowsProcessed,
		RowsInserted:  row.RowsInserted,
		LastRowHash:   row.LastRowHash,
		StartedAt:     row.StartedAt,
		CompletedAt:   row.CompletedAt,
		UpdatedAt:     row.UpdatedAt,
		Error:         row.Error,
	}
}
