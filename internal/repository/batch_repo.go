package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"faxrelay/internal/domain"
)

type BatchRepository interface {
	Create(ctx context.Context, b *domain.Batch) error
	GetByID(ctx context.Context, id string) (*domain.Batch, error)
	GetStatus(ctx context.Context, id string) (domain.BatchStatus, error)
	MarkInProgress(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id string, reason string) error
	Cancel(ctx context.Context, id string) error
	Retrigger(ctx context.Context, id string) error
	IncrementSubmitted(ctx context.Context, id string) error
}

type GormBatchRepo struct {
	db *gorm.DB
}

func NewGormBatchRepo(db *gorm.DB) *GormBatchRepo {
	return &GormBatchRepo{db: db}
}

func (r *GormBatchRepo) Create(ctx context.Context, b *domain.Batch) error {
	model := batchModelFromDomain(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if b != nil {
		*b = *batchModelToDomain(model)
	}
	return nil
}

func (r *GormBatchRepo) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	var model BatchModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return batchModelToDomain(&model), nil
}

// GetStatus reads just the status column. The dispatcher polls this between
// items so a long batch can be cancelled mid-flight.
func (r *GormBatchRepo) GetStatus(ctx context.Context, id string) (domain.BatchStatus, error) {
	var status domain.BatchStatus
	err := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ?", id).
		Select("status").
		Scan(&status).Error
	if err != nil {
		return "", err
	}
	if status == "" {
		return "", domain.ErrNotFound
	}
	return status, nil
}

// MarkInProgress transitions pending -> in_progress. The status guard makes
// the transition single-shot: a redelivered dispatch message finds the batch
// already claimed and gets ErrConflict.
func (r *GormBatchRepo) MarkInProgress(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ? AND status = ?", id, domain.BatchStatusPending).
		Update("status", domain.BatchStatusInProgress)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormBatchRepo) Complete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ? AND status = ?", id, domain.BatchStatusInProgress).
		Updates(map[string]any{
			"status": domain.BatchStatusCompleted,
			// A completed batch always reports the full count, even when
			// individual items were recorded as failed submissions.
			"submitted_count": gorm.Expr("total_count"),
			"completed_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormBatchRepo) Fail(ctx context.Context, id string, reason string) error {
	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ? AND status IN ?", id, []domain.BatchStatus{domain.BatchStatusPending, domain.BatchStatusInProgress}).
		Updates(map[string]any{
			"status": domain.BatchStatusFailed,
			"notes":  reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormBatchRepo) Cancel(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ? AND status IN ?", id, []domain.BatchStatus{domain.BatchStatusPending, domain.BatchStatusInProgress}).
		Update("status", domain.BatchStatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

// Retrigger resets a pending, failed, or cancelled batch back to pending with
// a zeroed progress counter. The status guard in the WHERE clause rejects a
// batch that is in progress or already completed, no matter how stale the
// caller's read was.
func (r *GormBatchRepo) Retrigger(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ? AND status IN ?", id, []domain.BatchStatus{
			domain.BatchStatusPending,
			domain.BatchStatusFailed,
			domain.BatchStatusCancelled,
		}).
		Updates(map[string]any{
			"status":          domain.BatchStatusPending,
			"submitted_count": 0,
			"completed_at":    nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

// IncrementSubmitted bumps the progress counter, bounded by total_count so a
// duplicate delivery can never overcount.
func (r *GormBatchRepo) IncrementSubmitted(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&BatchModel{}).
		Where("id = ? AND submitted_count < total_count", id).
		Update("submitted_count", gorm.Expr("submitted_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}
