package models

import "time"

// ImportJob is the durable control record for one import run (C5).
type ImportJob struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	FilePath      string `gorm:"type:text;not null"`
	Status        string `gorm:"type:text;not null"`
	BytesRead     int64  `gorm:"not null;default:0"`
	RowsProcessed int64  `gorm:"not null;default:0"`
	RowsInserted  int64  `gorm:"not null;default:0"`
	LastRowHash   string `gorm:"type:text"`
	Error         string `gorm:"type:text"`
	StartedAt     time.Time
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}

func (ImportJob) TableName() string {
	return "import_jobs"
}
