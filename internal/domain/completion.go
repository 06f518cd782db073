package domain

import "time"

// Completion is the reconciled outcome of one fax job, built from a
// completion document dropped by the fax server. JobID is globally unique;
// the uniqueness constraint is the pipeline's idempotence mechanism against
// re-ingestion of the same document.
type Completion struct {
	ID               string  `gorm:"type:uuid;primaryKey"`
	JobID            string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_completions_job_id"`
	SubmissionID     *string `gorm:"type:uuid"`
	SubmittedAt      *time.Time
	CompletedAt      time.Time `gorm:"not null"`
	DurationSeconds  int       `gorm:"not null;default:0"`
	Success          bool      `gorm:"not null"`
	ErrorCode        string    `gorm:"type:varchar(50)"`
	ErrorDescription string    `gorm:"type:text"`
	RecipientPhone   string    `gorm:"type:varchar(50)"`
	AccountName      string    `gorm:"type:varchar(100)"`
	GoodPageCount    int       `gorm:"not null;default:0"`
	BadPageCount     int       `gorm:"not null;default:0"`
	Disposition      int       `gorm:"not null;default:0"`
	TermStat         int       `gorm:"not null;default:0"`
	FaxHandle        string    `gorm:"type:varchar(50)"`
	FaxChannel       string    `gorm:"type:varchar(10)"`
	FaxServer        string    `gorm:"type:varchar(100)"`
	JobType          string    `gorm:"type:varchar(50)"`
	JobCreatedAt     *time.Time
	SourceFilename   string    `gorm:"type:varchar(255)"`
	RawDocument      string    `gorm:"type:text"`
	ParsedAt         time.Time `gorm:"not null"`
}

func (Completion) TableName() string { return "fax_completions" }
