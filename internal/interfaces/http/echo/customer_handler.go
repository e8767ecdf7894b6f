package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	app "github.com/acme-corp/customer-import/internal/application/importing"
	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

// CustomerHandler is the minimal read surface over already-imported rows.
// Pagination, create/update/delete and validation live outside the core
// import pipeline; this handler exists only so GetByIdentifier has a
// caller.
type CustomerHandler struct {
	useCase app.GetCustomerByIdentifier
}

func NewCustomerHandler(useCase app.GetCustomerByIdentifier) *CustomerHandler {
	return &CustomerHandler{useCase: useCase}
}

func (h *CustomerHandler) GetByID(c echo.Context) error {
	customer, err := h.useCase.Execute(c.Request().Context(), app.GetCustomerByIdentifierInput{
		Identifier: c.Param("id"),
	})
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return c.JSON(http.StatusNotFound, apiResponse{Error: &errorBody{
				Code:    "not_found",
				Message: "customer not found",
			}})
		}
		return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
			Code:    "internal_error",
			Message: "failed to get customer",
		}})
	}

	return c.JSON(http.StatusOK, apiResponse{Data: customerPayload(customer)})
}

func customerPayload(c domain.Customer) map[string]any {
	payload := map[string]any{
		"customerId":    c.CustomerID,
		"firstName":     c.FirstName,
		"lastName":      c.LastName,
		"email":         c.Email,
		"company":       c.Company,
		"city":          c.City,
		"country":       c.Country,
		"phone1":        c.Phone1,
		"phone2":        c.Phone2,
		"website":       c.Website,
		"aboutCustomer": c.AboutCustomer,
	}
	if c.SubscriptionDate != nil {
		payload["subscriptionDate"] = c.SubscriptionDate.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return payload
}
