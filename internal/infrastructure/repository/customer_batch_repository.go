package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

// CustomerBatchRepository is the Batch Writer (C3): it deduplicates,
// classifies insert vs update, and commits one batch per call.
type CustomerBatchRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerBatchRepository(pool *pgxpool.Pool) *CustomerBatchRepository {
	return &CustomerBatchRepository{pool: pool}
}

func (r *CustomerBatchRepository) Flush(ctx context.Context, items []domain.BatchItem) (domain.BatchFlushResult, error) {
	if len(items) == 0 {
		return domain.BatchFlushResult{}, nil
	}

	deduped, lastHash := dedupeByKey(items)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.BatchFlushResult{}, fmt.Errorf("begin batch tx: %w", err)
	}
	defer tx.Rollback(ctx)

	keys := make([]string, 0, len(deduped))
	for key := range deduped {
		keys = append(keys, key)
	}

	existing, err := existingKeys(ctx, tx, keys)
	if err != nil {
		return domain.BatchFlushResult{}, err
	}

	var toInsert, toUpdate []domain.BatchItem
	for key, item := range deduped {
		if existing[key] {
			toUpdate = append(toUpdate, item)
		} else {
			toInsert = append(toInsert, item)
		}
	}

	inserted, err := bulkInsert(ctx, tx, toInsert)
	if err != nil {
		return domain.BatchFlushResult{}, err
	}

	updated, err := updateExisting(ctx, tx, toUpdate)
	if err != nil {
		return domain.BatchFlushResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.BatchFlushResult{}, fmt.Errorf("commit batch tx: %w", err)
	}

	return domain.BatchFlushResult{
		Affected: inserted + updated,
		LastHash: lastHash,
	}, nil
}

// dedupeByKey keeps only the latest occurrence per effective identifier and
// returns the sourceHash of that latest occurrence in input order, which is
// the batch's resume marker regardless of insert/update classification.
func dedupeByKey(items []domain.BatchItem) (map[string]domain.BatchItem, string) {
	deduped := make(map[string]domain.BatchItem, len(items))
	lastHash := ""
	for _, item := range items {
		key := item.Customer.Identifier()
		if key == "" {
			continue
		}
		deduped[key] = item
		lastHash = item.SourceHash
	}
	return deduped, lastHash
}

func existingKeys(ctx context.Context, tx pgx.Tx, keys []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}

	rows, err := tx.Query(ctx, `SELECT customer_id FROM customers WHERE customer_id = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("probe existing customers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan existing customer id: %w", err)
		}
		existing[key] = true
	}
	return existing, rows.Err()
}

func bulkInsert(ctx context.Context, tx pgx.Tx, items []domain.BatchItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(items))
	for _, item := range items {
		c := item.Customer
		rows = append(rows, []any{
			c.Identifier(), nullable(c.FirstName), nullable(c.LastName), nullable(c.Email),
			nullable(c.Company), nullable(c.City), nullable(c.Country),
			nullable(c.Phone1), nullable(c.Phone2), nullable(c.Website), nullable(c.AboutCustomer),
			c.SubscriptionDate,
		})
	}

	if _, err := tx.Exec(ctx, `
CREATE TEMP TABLE IF NOT EXISTS stg_customers (
  customer_id TEXT, first_name TEXT, last_name TEXT, email TEXT,
  company TEXT, city TEXT, country TEXT,
  phone1 TEXT, phone2 TEXT, website TEXT, about_customer TEXT,
  subscription_date TIMESTAMPTZ
) ON COMMIT DROP
`); err != nil {
		return 0, fmt.Errorf("create staging table: %w", err)
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"stg_customers"},
		[]string{"customer_id", "first_name", "last_name", "email", "company", "city", "country", "phone1", "phone2", "website", "about_customer", "subscription_date"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return 0, fmt.Errorf("copy customers staging: %w", err)
	}

	tag, err := tx.Exec(ctx, `
INSERT INTO customers (
  customer_id, first_name, last_name, email, company, city, country,
  phone1, phone2, website, about_customer, subscription_date, created_at, updated_at
)
SELECT customer_id, first_name, last_name, email, company, city, country,
       phone1, phone2, website, about_customer, subscription_date, NOW(), NOW()
FROM stg_customers
ON CONFLICT (customer_id) DO NOTHING
`)
	if err != nil {
		return 0, fmt.Errorf("bulk insert customers: %w", err)
	}

	return tag.RowsAffected(), nil
}

func updateExisting(ctx context.Context, tx pgx.Tx, items []domain.BatchItem) (int64, error) {
	var affected int64
	for _, item := range items {
		c := item.Customer
		tag, err := tx.Exec(ctx, `
UPDATE customers SET
  first_name = $2, last_name = $3, email = $4, company = $5, city = $6, country = $7,
  phone1 = $8, phone2 = $9, website = $10, about_customer = $11, subscription_date = $12,
  updated_at = NOW()
WHERE customer_id = $1
`,
			c.Identifier(), nullable(c.FirstName), nullable(c.LastName), nullable(c.Email),
			nullable(c.Company), nullable(c.City), nullable(c.Country),
			nullable(c.Phone1), nullable(c.Phone2), nullable(c.Website), nullable(c.AboutCustomer),
			c.SubscriptionDate,
		)
		if err != nil {
			return 0, fmt.Errorf("update customer %s: %w", c.Identifier(), err)
		}
		affected += tag.RowsAffected()
	}
	return affected, nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
