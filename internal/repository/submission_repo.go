package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"faxrelay/internal/domain"
)

type SubmissionRepository interface {
	Create(ctx context.Context, s *domain.Submission) error
	GetByJobID(ctx context.Context, jobID string) (*domain.Submission, error)
	ListByBatch(ctx context.Context, batchID string) ([]domain.Submission, error)
	CountByBatch(ctx context.Context, batchID string) (int64, error)
}

type GormSubmissionRepo struct {
	db *gorm.DB
}

func NewGormSubmissionRepo(db *gorm.DB) *GormSubmissionRepo {
	return &GormSubmissionRepo{db: db}
}

func (r *GormSubmissionRepo) Create(ctx context.Context, s *domain.Submission) error {
	model := submissionModelFromDomain(s)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if s != nil {
		*s = *submissionModelToDomain(model)
	}
	return nil
}

// GetByJobID finds the submission a completion document belongs to. Job ids
// assigned by the fax server are unique, but FCL drops never learn theirs,
// so a miss is normal and maps to ErrNotFound.
func (r *GormSubmissionRepo) GetByJobID(ctx context.Context, jobID string) (*domain.Submission, error) {
	var model SubmissionModel
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return submissionModelToDomain(&model), nil
}

func (r *GormSubmissionRepo) ListByBatch(ctx context.Context, batchID string) ([]domain.Submission, error) {
	var models []SubmissionModel
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("submitted_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	submissions := make([]domain.Submission, 0, len(models))
	for i := range models {
		submissions = append(submissions, *submissionModelToDomain(&models[i]))
	}

	return submissions, nil
}

func (r *GormSubmissionRepo) CountByBatch(ctx context.Context, batchID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&SubmissionModel{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
