package importing

import "time"

// JobStatus is the lifecycle state of an ImportJob.
type JobStatus string

const (
	JobIdle      JobStatus = "IDLE"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// ImportJob is the durable control record for one end-to-end import run.
type ImportJob struct {
	ID            string
	FilePath      string
	Status        JobStatus
	BytesRead     int64
	RowsProcessed int64
	RowsInserted  int64
	LastRowHash   string
	StartedAt     time.Time
	CompletedAt   *time.Time
	UpdatedAt     time.Time
	Error         string
}

// CheckpointUpdate is the consistent tuple written together on every
// progress checkpoint, per the Job Store's write contract.
type CheckpointUpdate struct {
	BytesRead     int64
	RowsProcessed int64
	RowsInserted  int64
	LastRowHash   string
}

// ResumeCursor carries the persisted checkpoint a worker resumes from.
type ResumeCursor struct {
	StartBytes     int64
	OverlapBytes   int64
	LastRowHash    string
	RowsProcessed  int64
	RowsInserted   int64
}
