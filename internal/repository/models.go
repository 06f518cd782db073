package repository

import (
	"time"

	"faxrelay/internal/domain"
)

// BatchModel is the persistence model for the submission_batches table.
type BatchModel struct {
	ID              string             `gorm:"type:uuid;primaryKey"`
	Name            string             `gorm:"type:varchar(255)"`
	CreatedBy       string             `gorm:"type:varchar(100)"`
	TotalCount      int                `gorm:"not null"`
	Channel         domain.Channel     `gorm:"type:varchar(10);not null"`
	Timing          domain.Timing      `gorm:"type:varchar(20);not null"`
	IntervalSeconds int                `gorm:"not null;default:0"`
	RecipientPhone  string             `gorm:"type:varchar(50);not null"`
	RecipientName   string             `gorm:"type:varchar(255)"`
	AccountName     string             `gorm:"type:varchar(100);not null"`
	AttachmentPath  *string            `gorm:"type:varchar(255)"`
	Status          domain.BatchStatus `gorm:"type:varchar(20);not null"`
	SubmittedCount  int                `gorm:"not null;default:0"`
	CompletedAt     *time.Time
	Notes           string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (BatchModel) TableName() string {
	return "submission_batches"
}

// SubmissionModel is the persistence model for fax_submissions. Rows are
// append-only: every dispatched item gets exactly one row and it is never
// updated afterwards.
type SubmissionModel struct {
	ID             string                  `gorm:"type:uuid;primaryKey"`
	BatchID        string                  `gorm:"type:uuid;not null;index:idx_submissions_batch_id"`
	Channel        domain.Channel          `gorm:"type:varchar(10);not null"`
	JobID          *string                 `gorm:"type:varchar(100);index:idx_submissions_job_id"`
	RecipientPhone string                  `gorm:"type:varchar(50);not null"`
	RecipientName  string                  `gorm:"type:varchar(255)"`
	AccountName    string                  `gorm:"type:varchar(100);not null"`
	ArtifactName   *string                 `gorm:"type:varchar(255)"`
	StatusCode     *int                    `gorm:"type:int"`
	Status         domain.SubmissionStatus `gorm:"type:varchar(20);not null"`
	ErrorMessage   *string                 `gorm:"type:text"`
	SubmittedAt    time.Time               `gorm:"not null"`
}

func (SubmissionModel) TableName() string {
	return "fax_submissions"
}

// CompletionModel is the persistence model for fax_completions. The unique
// index on job_id is what makes document ingestion idempotent.
type CompletionModel struct {
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

func (CompletionModel) TableName() string {
	return "fax_completions"
}

func batchModelFromDomain(b *domain.Batch) *BatchModel {
	if b == nil {
		return nil
	}

	return &BatchModel{
		ID:              b.ID,
		Name:            b.Name,
		CreatedBy:       b.CreatedBy,
		TotalCount:      b.TotalCount,
		Channel:         b.Channel,
		Timing:          b.Timing,
		IntervalSeconds: b.IntervalSeconds,
		RecipientPhone:  b.RecipientPhone,
		RecipientName:   b.RecipientName,
		AccountName:     b.AccountName,
		AttachmentPath:  b.AttachmentPath,
		Status:          b.Status,
		SubmittedCount:  b.SubmittedCount,
		CompletedAt:     b.CompletedAt,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func batchModelToDomain(m *BatchModel) *domain.Batch {
	if m == nil {
		return nil
	}

	return &domain.Batch{
		ID:              m.ID,
		Name:            m.Name,
		CreatedBy:       m.CreatedBy,
		TotalCount:      m.TotalCount,
		Channel:         m.Channel,
		Timing:          m.Timing,
		IntervalSeconds: m.IntervalSeconds,
		RecipientPhone:  m.RecipientPhone,
		RecipientName:   m.RecipientName,
		AccountName:     m.AccountName,
		AttachmentPath:  m.AttachmentPath,
		Status:          m.Status,
		SubmittedCount:  m.SubmittedCount,
		CompletedAt:     m.CompletedAt,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func submissionModelFromDomain(s *domain.Submission) *SubmissionModel {
	if s == nil {
		return nil
	}

	return &SubmissionModel{
		ID:             s.ID,
		BatchID:        s.BatchID,
		Channel:        s.Channel,
		JobID:          s.JobID,
		RecipientPhone: s.RecipientPhone,
		RecipientName:  s.RecipientName,
		AccountName:    s.AccountName,
		ArtifactName:   s.ArtifactName,
		StatusCode:     s.StatusCode,
		Status:         s.Status,
		ErrorMessage:   s.ErrorMessage,
		SubmittedAt:    s.SubmittedAt,
	}
}

func submissionModelToDomain(m *SubmissionModel) *domain.Submission {
	if m == nil {
		return nil
	}

	return &domain.Submission{
		ID:             m.ID,
		BatchID:        m.BatchID,
		Channel:        m.Channel,
		JobID:          m.JobID,
		RecipientPhone: m.RecipientPhone,
		RecipientName:  m.RecipientName,
		AccountName:    m.AccountName,
		ArtifactName:   m.ArtifactName,
		StatusCode:     m.StatusCode,
		Status:         m.Status,
		ErrorMessage:   m.ErrorMessage,
		SubmittedAt:    m.SubmittedAt,
	}
}

func completionModelFromDomain(c *domain.Completion) *CompletionModel {
	if c == nil {
		return nil
	}

	return &CompletionModel{
		ID:               c.ID,
		JobID:            c.JobID,
		SubmissionID:     c.SubmissionID,
		SubmittedAt:      c.SubmittedAt,
		CompletedAt:      c.CompletedAt,
		DurationSeconds:  c.DurationSeconds,
		Success:          c.Success,
		ErrorCode:        c.ErrorCode,
		ErrorDescription: c.ErrorDescription,
		RecipientPhone:   c.RecipientPhone,
		AccountName:      c.AccountName,
		GoodPageCount:    c.GoodPageCount,
		BadPageCount:     c.BadPageCount,
		Disposition:      c.Disposition,
		TermStat:         c.TermStat,
		FaxHandle:        c.FaxHandle,
		FaxChannel:       c.FaxChannel,
		FaxServer:        c.FaxServer,
		JobType:          c.JobType,
		JobCreatedAt:     c.JobCreatedAt,
		SourceFilename:   c.SourceFilename,
		RawDocument:      c.RawDocument,
		ParsedAt:         c.ParsedAt,
	}
}

func completionModelToDomain(m *CompletionModel) *domain.Completion {
	if m == nil {
		return nil
	}

	return &domain.Completion{
		ID:               m.ID,
		JobID:            m.JobID,
		SubmissionID:     m.SubmissionID,
		SubmittedAt:      m.SubmittedAt,
		CompletedAt:      m.CompletedAt,
		DurationSeconds:  m.DurationSeconds,
		Success:          m.Success,
		ErrorCode:        m.ErrorCode,
		ErrorDescription: m.ErrorDescription,
		RecipientPhone:   m.RecipientPhone,
		AccountName:      m.AccountName,
		GoodPageCount:    m.GoodPageCount,
		BadPageCount:     m.BadPageCount,
		Disposition:      m.Disposition,
		TermStat:         m.TermStat,
		FaxHandle:        m.FaxHandle,
		FaxChannel:       m.FaxChannel,
		FaxServer:        m.FaxServer,
		JobType:          m.JobType,
		JobCreatedAt:     m.JobCreatedAt,
		SourceFilename:   m.SourceFilename,
		RawDocument:      m.RawDocument,
		ParsedAt:         m.ParsedAt,
	}
}
