package domain

import "time"

// SubmissionStatus represents the recorded outcome of one dispatched item.
type SubmissionStatus string

const (
	SubmissionStatusSubmitted    SubmissionStatus = "submitted"
	SubmissionStatusFailed       SubmissionStatus = "failed"
	SubmissionStatusPendingRetry SubmissionStatus = "pending_retry"
)

func (s SubmissionStatus) String() string { return string(s) }

func (s SubmissionStatus) IsValid() bool {
	switch s {
	case SubmissionStatusSubmitted, SubmissionStatusFailed, SubmissionStatusPendingRetry:
		return true
	}
	return false
}

// Submission is the append-only record of one dispatched fax attempt.
// Rows are never mutated after creation.
type Submission struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	BatchID        string  `gorm:"type:uuid;not null"`
	Channel        Channel `gorm:"type:varchar(10);not null"`
	JobID          *string `gorm:"type:varchar(100)"`
	RecipientPhone string  `gorm:"type:varchar(50);not null"`
	RecipientName  string  `gorm:"type:varchar(255)"`
	AccountName    string  `gorm:"type:varchar(100);not null"`
	ArtifactName   *string `gorm:"type:varchar(255)"`
	StatusCode     *int    `gorm:"type:int"`
	Status         SubmissionStatus `gorm:"type:varchar(20);not null"`
	ErrorMessage   *string          `gorm:"type:text"`
	SubmittedAt    time.Time        `gorm:"not null"`
}

func (Submission) TableName() string { return "fax_submissions" }
