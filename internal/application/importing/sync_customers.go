package importing

import (
	"context"

	domain "github.com/acme-corp/customer-import/internal/domain/importing"
)

type SyncCustomersInput struct {
	FilePath              string
	BatchSize             int
	ProgressUpdateEveryMs int
	TotalRows             int
}

type SyncCustomersOutput struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	FilePath      string `json:"file_path"`
	BytesRead     int64  `json:"bytes_read"`
	RowsProcessed int64  `json:"rows_processed"`
	RowsInserted  int64  `json:"rows_inserted"`
}

type SyncCustomers interface {
	Execute(ctx context.Context, in SyncCustomersInput) (SyncCustomersOutput, error)
}

type importStarter interface {
	Start(ctx context.Context, req StartRequest) (*domain.ImportJob, error)
}

type syncCustomers struct {
	supervisor importStarter
}

func NewSyncCustomers(supervisor importStarter) SyncCustomers {
	return &syncCustomers{supervisor: supervisor}
}

func (uc *syncCustomers) Execute(ctx context.Context, in SyncCustomersInput) (SyncCustomersOutput, error) {
	job, err := uc.supervisor.Start(ctx, StartRequest{
		FilePath:        in.FilePath,
		BatchSize:       in.BatchSize,
		ProgressEveryMs: in.ProgressUpdateEveryMs,
		TotalRows:       int64(in.TotalRows),
	})
	if err != nil {
		if job != nil {
			// Conflict still carries the live job's id/status, per the
			// HTTP surface's 409 contract.
			return toSyncOutput(job), err
		}
		return SyncCustomersOutput{}, err
	}

	return toSyncOutput(job), nil
}

func toSyncOutput(job *domain.ImportJob) SyncCustomersOutput {
	return SyncCustomersOutput{
		JobID:         job.ID,
		Status:        string(job.Status),
		FilePath:      job.FilePath,
		BytesRead:     job.BytesRead,
		RowsProcessed: job.RowsProcessed,
		RowsInserted:  job.RowsInserted,
	}
}
