package importing_test

import (
	"context"
	"errors"
	"testing"

	app "github.com/acme-corp/customer-import/internal/application/importing"
	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

type fakeSupervisor struct {
	job       *domain.ImportJob
	gotReq    app.StartRequest
	returnErr error
}

func (f *fakeSupervisor) Start(ctx context.Context, req app.StartRequest) (*domain.ImportJob, error) {
	f.gotReq = req
	if f.returnErr != nil {
		return f.job, f.returnErr
	}
	return f.job, nil
}

func TestSyncCustomersSuccess(t *testing.T) {
	t.Parallel()

	supervisor := &fakeSupervisor{job: &domain.ImportJob{
		ID:       "job-1",
		Status:   domain.JobRunning,
		FilePath: "customers.csv",
	}}
	uc := app.NewSyncCustomers(supervisor)

	out, err := uc.Execute(context.Background(), app.SyncCustomersInput{FilePath: "customers.csv", BatchSize: 500})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.JobID != "job-1" {
		t.Fatalf("unexpected job id: %s", out.JobID)
	}
	if supervisor.gotReq.BatchSize != 500 {
		t.Fatalf("expected batch size to be forwarded, got %d", supervisor.gotReq.BatchSize)
	}
}

func TestSyncCustomersConflict(t *testing.T) {
	t.Parallel()

	uc := app.NewSyncCustomers(&fakeSupervisor{
		returnErr: domain.ErrImportConflict,
		job:       &domain.ImportJob{ID: "job-live", Status: domain.JobRunning},
	})

	out, err := uc.Execute(context.Background(), app.SyncCustomersInput{})
	if !errors.Is(err, domain.ErrImportConflict) {
		t.Fatalf("expected ErrImportConflict, got %v", err)
	}
	if out.JobID != "job-live" {
		t.Fatalf("expected conflict output to carry the live job id, got %q", out.JobID)
	}
}
