package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	app "github.com/acme-corp/customer-import/internal/application/importing"
	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

type SyncHandler struct {
	useCase app.SyncCustomers
}

func NewSyncHandler(useCase app.SyncCustomers) *SyncHandler {
	return &SyncHandler{useCase: useCase}
}

type syncCustomersRequest struct {
	FilePath              string `json:"filePath"`
	BatchSize             int    `json:"batchSize"`
	ProgressUpdateEveryMs int    `json:"progressUpdateEveryMs"`
	TotalRows             int    `json:"totalRows"`
}

func (h *SyncHandler) Sync(c echo.Context) error {
	var req syncCustomersRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "invalid request body",
		}})
	}

	out, err := h.useCase.Execute(c.Request().Context(), app.SyncCustomersInput{
		FilePath:              req.FilePath,
		BatchSize:             req.BatchSize,
		ProgressUpdateEveryMs: req.ProgressUpdateEveryMs,
		TotalRows:             req.TotalRows,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidFilePath),
			errors.Is(err, domain.ErrInvalidBatchSize),
			errors.Is(err, domain.ErrInvalidProgressMs),
			errors.Is(err, domain.ErrInvalidTotalRows):
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "validation_error",
				Message: err.Error(),
			}})
		case errors.Is(err, domain.ErrImportConflict):
			return c.JSON(http.StatusConflict, apiResponse{Data: out, Error: &errorBody{
				Code:    "conflict",
				Message: err.Error(),
			}})
		default:
			return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
				Code:    "internal_error",
				Message: "failed to start import",
			}})
		}
	}

	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
