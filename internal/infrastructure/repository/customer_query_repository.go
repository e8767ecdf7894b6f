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

// CustomerQueryRepository serves read-only access to imported customers:
// the CustomerReader port used by the Progress Broker (C7) for "recently
// imported" samples, plus a minimal CRUD-style lookup surface.
type CustomerQueryRepository struct {
	db *gorm.DB
}

func NewCustomerQueryRepository(db *gorm.DB) *CustomerQueryRepository {
	return &CustomerQueryRepository{db: db}
}

func (r *CustomerQueryRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Customer, error) {
	var row models.Customer

	err := r.db.WithContext(ctx).First(&row, "customer_id = ?", identifier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer by identifier: %w", err)
	}

	return toDomainCustomer(row), nil
}

func (r *CustomerQueryRepository) RecentSince(ctx context.Context, since time.Time, limit int) ([]domain.Customer, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []models.Customer
	err := r.db.WithContext(ctx).
		Where("updated_at >= ?", since).
		Order("updated_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query recent customers: %w", err)
	}

	customers := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, *toDomainCustomer(row))
	}
	return customers, nil
}

func toDomainCustomer(row models.Customer) *domain.Customer {
	return &domain.Customer{
		ID:               row.ID,
		CustomerID:       row.CustomerID,
		FirstName:        row.FirstName,
		LastName:         row.LastName,
		Email:            row.Email,
		Company:          row.Company,
		City:             row.City,
		Country:          row.Country,
		Phone1:           row.Phone1,
		Phone2:           row.Phone2,
		Website:          row.Website,
		AboutCustomer:    row.AboutCustomer,
		SubscriptionDate: row.SubscriptionDate,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
