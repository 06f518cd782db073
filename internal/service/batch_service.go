package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"faxrelay/internal/domain"
	"faxrelay/internal/queue"
	"faxrelay/internal/repository"
)

const (
	defaultMaxBatchSize       = 100000
	defaultMaxIntervalSeconds = 300
)

// BatchService accepts batch requests, persists them, and enqueues dispatch
// work for the worker fleet.
type BatchService struct {
	batches   repository.BatchRepository
	publisher queue.Publisher
	logger    *zap.Logger

	maxBatchSize       int
	maxIntervalSeconds int
}

func NewBatchService(
	batches repository.BatchRepository,
	publisher queue.Publisher,
	maxBatchSize int,
	maxIntervalSeconds int,
	logger *zap.Logger,
) (*BatchService, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if maxBatchSize <= 0 {
		maxBatchSize = defaultMaxBatchSize
	}
	if maxIntervalSeconds <= 0 {
		maxIntervalSeconds = defaultMaxIntervalSeconds
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BatchService{
		batches:            batches,
		publisher:          publisher,
		logger:             logger,
		maxBatchSize:       maxBatchSize,
		maxIntervalSeconds: maxIntervalSeconds,
	}, nil
}

// Create validates and persists a batch, then publishes its dispatch message.
// A publish failure marks the batch failed so it can be re-triggered once the
// broker recovers.
func (s *BatchService) Create(ctx context.Context, batch *domain.Batch) (*domain.Batch, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.prepareForCreate(batch); err != nil {
		return nil, err
	}

	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, err
	}

	if err := s.enqueue(ctx, batch.ID); err != nil {
		return nil, err
	}

	return batch, nil
}

// Retrigger resets a pending, failed, or cancelled batch and enqueues it
// again. The repository's guarded update rejects batches that moved to
// in_progress or completed since the caller last looked.
func (s *BatchService) Retrigger(ctx context.Context, id string) (*domain.Batch, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}

	if err := s.batches.Retrigger(ctx, id); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Distinguish a missing batch from a non-retriggerable one.
			if _, getErr := s.batches.GetByID(ctx, id); errors.Is(getErr, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
		}
		return nil, err
	}

	if err := s.enqueue(ctx, id); err != nil {
		return nil, err
	}

	return s.batches.GetByID(ctx, id)
}

func (s *BatchService) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}
	return s.batches.GetByID(ctx, id)
}

func (s *BatchService) Cancel(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: batch id is required", domain.ErrValidation)
	}
	return s.batches.Cancel(ctx, id)
}

func (s *BatchService) enqueue(ctx context.Context, batchID string) error {
	msg := queue.DispatchMessage{
		BatchID:       batchID,
		CorrelationID: uuid.NewString(),
	}

	if err := s.publisher.Publish(ctx, queue.QueueBatchDispatch, msg); err != nil {
		s.logger.Error("failed to publish dispatch message",
			zap.String("batchId", batchID),
			zap.Error(err),
		)
		if failErr := s.batches.Fail(ctx, batchID, "dispatch enqueue failed"); failErr != nil {
			s.logger.Error("failed to mark batch as failed after publish error",
				zap.String("batchId", batchID),
				zap.Error(failErr),
			)
			return fmt.Errorf("failed to publish dispatch message: %w (failed to mark batch failed: %v)", err, failErr)
		}
		return fmt.Errorf("failed to publish dispatch message: %w", err)
	}

	return nil
}

func (s *BatchService) prepareForCreate(batch *domain.Batch) error {
	if batch == nil {
		return fmt.Errorf("%w: batch is required", domain.ErrValidation)
	}

	batch.ID = strings.TrimSpace(batch.ID)
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}

	batch.Name = strings.TrimSpace(batch.Name)
	batch.CreatedBy = strings.TrimSpace(batch.CreatedBy)
	batch.RecipientPhone = strings.TrimSpace(batch.RecipientPhone)
	batch.RecipientName = strings.TrimSpace(batch.RecipientName)
	batch.AccountName = strings.TrimSpace(batch.AccountName)
	if batch.Timing == "" {
		batch.Timing = domain.TimingImmediate
	}

	batch.Status = domain.BatchStatusPending
	batch.SubmittedCount = 0
	batch.CompletedAt = nil

	if err := batch.Validate(); err != nil {
		return err
	}

	if batch.TotalCount > s.maxBatchSize {
		return fmt.Errorf("%w: total count %d exceeds limit %d", domain.ErrValidation, batch.TotalCount, s.maxBatchSize)
	}
	if batch.Timing == domain.TimingInterval && batch.IntervalSeconds > s.maxIntervalSeconds {
		return fmt.Errorf("%w: interval %ds exceeds limit %ds", domain.ErrValidation, batch.IntervalSeconds, s.maxIntervalSeconds)
	}

	return nil
}
