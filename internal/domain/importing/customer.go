package importing

import "time"

// Customer is the target row produced by an import run.
type Customer struct {
	ID               int64
	CustomerID       string
	FirstName        string
	LastName         string
	Email            string
	Company          string
	City             string
	Country          string
	Phone1           string
	Phone2           string
	Website          string
	AboutCustomer    string
	SubscriptionDate *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Identifier returns the effective identifier used for dedup and upsert
// decisions: CustomerID when present, otherwise the normalized Email.
func (c Customer) Identifier() string {
	if c.CustomerID != "" {
		return c.CustomerID
	}
	return c.Email
}
