package importing

import "time"

// Progress is a derived, read-only snapshot of the most relevant ImportJob.
// It is never persisted; it is recomputed on every read.
type Progress struct {
	JobID           string
	Status          JobStatus
	RowsProcessed   int64
	RowsInserted    int64
	BytesRead       int64
	Percent         float64
	RateRowsPerSec  float64
	ElapsedSec      float64
	ETASec          *float64
	StartedAt       *time.Time
	UpdatedAt       *time.Time
	CompletedAt     *time.Time
	Error           string
	DisableSync     bool
	RecentCustomers []Customer
}

// IdleProgress is returned when no ImportJob has ever been created.
func IdleProgress() Progress {
	return Progress{
		Status: JobIdle,
	}
}
