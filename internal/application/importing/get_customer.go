package importing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

// GetCustomerByIdentifier is outside the core import pipeline (the spec
// scopes CRUD out) but is wired here so the already-imported rows are
// reachable for anything other than the progress broker's recent sample.
type GetCustomerByIdentifierInput struct {
	Identifier string
}

type GetCustomerByIdentifier interface {
	Execute(ctx context.Context, in GetCustomerByIdentifierInput) (domain.Customer, error)
}

type getCustomerByIdentifier struct {
	repo domain.CustomerReader
}

func NewGetCustomerByIdentifier(repo domain.CustomerReader) GetCustomerByIdentifier {
	return &getCustomerByIdentifier{repo: repo}
}

var errGetCustomer = errors.New("get customer")

func (uc *getCustomerByIdentifier) Execute(ctx context.Context, in GetCustomerByIdentifierInput) (domain.Customer, error) {
	identifier := strings.TrimSpace(in.Identifier)
	if identifier == "" {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}

	customer, err := uc.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return domain.Customer{}, fmt.Errorf("%w: %v", errGetCustomer, err)
	}

	return *customer, nil
}
