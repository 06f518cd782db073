package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"faxrelay/internal/domain"
)

type CompletionRepository interface {
	CreateWithCorrelation(ctx context.Context, c *domain.Completion) error
	ExistsByJobID(ctx context.Context, jobID string) (bool, error)
	GetByJobID(ctx context.Context, jobID string) (*domain.Completion, error)
}

type GormCompletionRepo struct {
	db *gorm.DB
}

func NewGormCompletionRepo(db *gorm.DB) *GormCompletionRepo {
	return &GormCompletionRepo{db: db}
}

// CreateWithCorrelation links the completion to its submission row when one
// exists for the job id, then inserts it. Both steps run in one transaction
// so a crash cannot leave a correlated-but-unsaved completion. A second
// insert for the same job id hits the unique index and returns ErrConflict.
func (r *GormCompletionRepo) CreateWithCorrelation(ctx context.Context, c *domain.Completion) error {
	if c == nil {
		return nil
	}

	model := completionModelFromDomain(c)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub SubmissionModel
		err := tx.Where("job_id = ?", model.JobID).First(&sub).Error
		switch {
		case err == nil:
			model.SubmissionID = &sub.ID
			// The document's own create time wins; the submission row only
			// backfills when the document carried none.
			if model.SubmittedAt == nil {
				submittedAt := sub.SubmittedAt
				model.SubmittedAt = &submittedAt
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// FCL submissions never learn their job id; the completion
			// stands alone.
		default:
			return err
		}

		return tx.Create(model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}

	*c = *completionModelToDomain(model)
	return nil
}

func (r *GormCompletionRepo) ExistsByJobID(ctx context.Context, jobID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&CompletionModel{}).
		Where("job_id = ?", jobID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormCompletionRepo) GetByJobID(ctx context.Context, jobID string) (*domain.Completion, error) {
	var model CompletionModel
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return completionModelToDomain(&model), nil
}
