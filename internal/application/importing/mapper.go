package importing

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
	"golang.org/x/text/unicode/norm"
)

// fieldAliases lists, per Customer field, the header spellings the Mapper
// recognizes. Lookup is case-insensitive and ignores surrounding whitespace.
var fieldAliases = map[string][]string{
	"customerId":    {"customer id", "customer_id", "customerid", "id"},
	"firstName":     {"firstname", "first_name", "first name"},
	"lastName":      {"lastname", "last_name", "last name"},
	"fullName":      {"fullname", "full_name", "full name", "name"},
	"company":       {"company", "company_name", "company name"},
	"city":          {"city"},
	"country":       {"country"},
	"phone1":        {"phone 1", "phone1", "phone_1"},
	"phone2":        {"phone 2", "phone2", "phone_2"},
	"email":         {"email", "e-mail", "email address"},
	"subscription":  {"subscription date", "subscription_date", "subscriptiondate"},
	"website":       {"website", "web site"},
	"about":         {"about customer", "about_customer", "aboutcustomer", "about"},
}

var subscriptionLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"January 2, 2006",
}

// Mapper normalizes a parsed CSV row into a Customer tuple (C1).
type Mapper struct{}

func NewMapper() *Mapper {
	return &Mapper{}
}

// Map returns nil when the row carries no usable identifier; such rows are
// silently skipped and must not be counted as processed by the caller.
func (m *Mapper) Map(record map[string]string) *domain.Customer {
	lookup := make(map[string]string, len(record))
	for k, v := range record {
		lookup[normalizeHeader(k)] = norm.NFC.String(strings.TrimSpace(v))
	}

	customerID := firstNonEmpty(lookup, fieldAliases["customerId"])
	email := normalizeHeaderValue(firstNonEmpty(lookup, fieldAliases["email"]))

	if customerID == "" && email == "" {
		return nil
	}

	firstName := firstNonEmpty(lookup, fieldAliases["firstName"])
	lastName := firstNonEmpty(lookup, fieldAliases["lastName"])
	if firstName == "" {
		if full := firstNonEmpty(lookup, fieldAliases["fullName"]); full != "" {
			parts := strings.Fields(full)
			if len(parts) > 0 {
				firstName = parts[0]
				lastName = strings.Join(parts[1:], " ")
			}
		}
	}

	var subscriptionDate *time.Time
	if raw := firstNonEmpty(lookup, fieldAliases["subscription"]); raw != "" {
		if parsed := parseSubscriptionDate(raw); parsed != nil {
			subscriptionDate = parsed
		}
	}

	return &domain.Customer{
		CustomerID:       customerID,
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
		Company:          firstNonEmpty(lookup, fieldAliases["company"]),
		City:             firstNonEmpty(lookup, fieldAliases["city"]),
		Country:          firstNonEmpty(lookup, fieldAliases["country"]),
		Phone1:           firstNonEmpty(lookup, fieldAliases["phone1"]),
		Phone2:           firstNonEmpty(lookup, fieldAliases["phone2"]),
		Website:          firstNonEmpty(lookup, fieldAliases["website"]),
		AboutCustomer:    firstNonEmpty(lookup, fieldAliases["about"]),
		SubscriptionDate: subscriptionDate,
	}
}

// Hash computes a deterministic fingerprint over the fixed field order,
// independent of map iteration order or header case.
func (m *Mapper) Hash(c domain.Customer) string {
	subscription := ""
	if c.SubscriptionDate != nil {
		subscription = c.SubscriptionDate.UTC().Format(time.RFC3339)
	}

	fields := []string{
		c.CustomerID,
		c.FirstName,
		c.LastName,
		c.Company,
		c.City,
		c.Country,
		c.Phone1,
		c.Phone2,
		c.Email,
		subscription,
		c.Website,
		c.AboutCustomer,
	}

	h := sha256.New()
	h.Write([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(h.Sum(nil))
}

func firstNonEmpty(lookup map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := lookup[normalizeHeader(alias)]; ok && v != "" {
			return v
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func normalizeHeaderValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func parseSubscriptionDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range subscriptionLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
