package echo_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	app "github.com/acme-corp/customer-import/internal/application/importing"
	domain "github.com/acme-corp/customer-import/internal/domain/importing"
	httpecho "github.com/acme-corp/customer-import/internal/interfaces/http/echo"
)

type fakeSyncUseCase struct {
	output app.SyncCustomersOutput
	err    error
}

func (f *fakeSyncUseCase) Execute(ctx context.Context, in app.SyncCustomersInput) (app.SyncCustomersOutput, error) {
	if f.err != nil {
		return f.output, f.err
	}
	return f.output, nil
}

func newSyncRouter(useCase app.SyncCustomers) *echo.Echo {
	e := echo.New()
	handler := httpecho.NewSyncHandler(useCase)
	e.POST("/api/v1/customers/sync", handler.Sync)
	return e
}

func TestSyncHandlerSuccess(t *testing.T) {
	t.Parallel()

	e := newSyncRouter(&fakeSyncUseCase{output: app.SyncCustomersOutput{JobID: "job-1", Status: "RUNNING"}})

	body := []byte(`{"filePath":"customers.csv","batchSize":1000}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/sync", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	data, ok := got["data"].(map[string]any)
	if !ok || data["job_id"] != "job-1" {
		t.Fatalf("unexpected data payload: %#v", got["data"])
	}
}

func TestSyncHandlerBadJSON(t *testing.T) {
	t.Parallel()

	e := newSyncRouter(&fakeSyncUseCase{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/sync", bytes.NewReader([]byte(`{"filePath":`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSyncHandlerValidationError(t *testing.T) {
	t.Parallel()

	e := newSyncRouter(&fakeSyncUseCase{err: domain.ErrInvalidBatchSize})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/sync", bytes.NewReader([]byte(`{"filePath":"c.csv","batchSize":1}`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSyncHandlerConflictCarriesRunningJob(t *testing.T) {
	t.Parallel()

	e := newSyncRouter(&fakeSyncUseCase{
		output: app.SyncCustomersOutput{JobID: "job-live", Status: "RUNNING"},
		err:    domain.ErrImportConflict,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/sync", bytes.NewReader([]byte(`{"filePath":"c.csv"}`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unexpected json: %v", err)
	}
	data, ok := got["data"].(map[string]any)
	if !ok || data["job_id"] != "job-live" {
		t.Fatalf("expected conflict response to carry the running job, got %#v", got["data"])
	}
	if got["error"] == nil {
		t.Fatal("expected an error body alongside the running job")
	}
}

func TestSyncHandlerInternalError(t *testing.T) {
	t.Parallel()

	e := newSyncRouter(&fakeSyncUseCase{err: errors.New("boom")})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/sync", bytes.NewReader([]byte(`{"filePath":"c.csv"}`)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
