package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"faxrelay/internal/domain"
	"faxrelay/internal/faxapi"
	"faxrelay/internal/fcl"
	"faxrelay/internal/observability"
	"faxrelay/internal/queue"
	"faxrelay/internal/ratelimit"
	"faxrelay/internal/repository"
)

// FCLEmitter writes one command artifact per fax into the drop directory.
type FCLEmitter interface {
	Emit(req fcl.Request) (string, error)
}

// FaxSubmitter submits one fax through the fax server API.
type FaxSubmitter interface {
	Submit(ctx context.Context, req faxapi.Request) (*faxapi.Result, error)
}

// DispatchService drives one batch from a dispatch message: it claims the
// batch, submits every item through the configured channel, and records one
// submission row per item.
type DispatchService struct {
	batches     repository.BatchRepository
	submissions repository.SubmissionRepository
	emitter     FCLEmitter
	faxClient   FaxSubmitter
	rateLimiter ratelimit.Limiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewDispatchService(
	batches repository.BatchRepository,
	submissions repository.SubmissionRepository,
	emitter FCLEmitter,
	faxClient FaxSubmitter,
	rateLimiter ratelimit.Limiter,
	logger *zap.Logger,
) (*DispatchService, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch repository is required")
	}
	if submissions == nil {
		return nil, fmt.Errorf("submission repository is required")
	}
	if rateLimiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DispatchService{
		batches:     batches,
		submissions: submissions,
		emitter:     emitter,
		faxClient:   faxClient,
		rateLimiter: rateLimiter,
		logger:      logger,
		now:         time.Now,
		sleep:       sleepWithContext,
	}, nil
}

func (s *DispatchService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// HandleDispatch is the batch.dispatch queue handler.
func (s *DispatchService) HandleDispatch(ctx context.Context, body []byte) error {
	var msg queue.DispatchMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: invalid dispatch payload: %v", queue.ErrReject, err)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrReject, err)
	}

	if msg.CorrelationID != "" {
		ctx = observability.WithCorrelationID(ctx, msg.CorrelationID)
	}
	logger := observability.WithContextLogger(s.logger, ctx)

	batch, err := s.batches.GetByID(ctx, msg.BatchID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: batch %s not found", queue.ErrReject, msg.BatchID)
		}
		return fmt.Errorf("failed to load batch: %w", err)
	}

	if err := s.batches.MarkInProgress(ctx, batch.ID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Already claimed, finished, or cancelled. A redelivered
			// message must not restart the batch.
			logger.Info("skipping batch not in pending state",
				zap.String("batchId", batch.ID),
				zap.String("status", batch.Status.String()),
			)
			return nil
		}
		return fmt.Errorf("failed to claim batch: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncWorkerInFlight(queue.QueueBatchDispatch)
		defer s.metrics.DecWorkerInFlight(queue.QueueBatchDispatch)
	}

	logger.Info("dispatching batch",
		zap.String("batchId", batch.ID),
		zap.String("channel", batch.Channel.String()),
		zap.Int("totalCount", batch.TotalCount),
	)

	if err := s.run(ctx, logger, batch); err != nil {
		if failErr := s.batches.Fail(ctx, batch.ID, err.Error()); failErr != nil {
			logger.Error("failed to mark batch as failed",
				zap.String("batchId", batch.ID),
				zap.Error(failErr),
			)
		}
		if s.metrics != nil {
			s.metrics.IncBatchFinished(domain.BatchStatusFailed.String())
		}
		return fmt.Errorf("batch %s dispatch failed: %w", batch.ID, err)
	}

	return nil
}

// run submits every item of a claimed batch. Individual submission failures
// are recorded and counted but do not stop the loop; only repository and
// cancellation-poll errors abort the batch.
func (s *DispatchService) run(ctx context.Context, logger *zap.Logger, batch *domain.Batch) error {
	interval := time.Duration(batch.IntervalSeconds) * time.Second

	for i := 0; i < batch.TotalCount; i++ {
		status, err := s.batches.GetStatus(ctx, batch.ID)
		if err != nil {
			return fmt.Errorf("failed to poll batch status: %w", err)
		}
		if status == domain.BatchStatusCancelled {
			logger.Info("batch cancelled mid-dispatch",
				zap.String("batchId", batch.ID),
				zap.Int("submitted", i),
			)
			if s.metrics != nil {
				s.metrics.IncBatchFinished(domain.BatchStatusCancelled.String())
			}
			return nil
		}

		scope := strings.ToLower(batch.Channel.String())
		if err := s.rateLimiter.Wait(ctx, scope); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}

		submission := s.dispatchOne(ctx, batch, i)
		if err := s.submissions.Create(ctx, submission); err != nil {
			return fmt.Errorf("failed to record submission: %w", err)
		}

		if s.metrics != nil {
			s.metrics.IncSubmission(scope, submission.Status.String())
		}

		// The counter tracks items processed, not items that went out
		// cleanly; failed items carry their outcome on the submission row.
		if err := s.batches.IncrementSubmitted(ctx, batch.ID); err != nil && !errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("failed to increment submitted count: %w", err)
		}

		if batch.Timing == domain.TimingInterval && interval > 0 && i < batch.TotalCount-1 {
			if err := s.sleep(ctx, interval); err != nil {
				return fmt.Errorf("interval wait interrupted: %w", err)
			}
		}
	}

	if err := s.batches.Complete(ctx, batch.ID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Cancelled after the last item went out; keep that status.
			return nil
		}
		return fmt.Errorf("failed to complete batch: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncBatchFinished(domain.BatchStatusCompleted.String())
	}
	logger.Info("batch completed", zap.String("batchId", batch.ID))
	return nil
}

// dispatchOne submits item i and returns its submission record. Failures are
// captured in the record, never returned.
func (s *DispatchService) dispatchOne(ctx context.Context, batch *domain.Batch, i int) *domain.Submission {
	recipientName := batch.RecipientName
	if recipientName == "" {
		recipientName = fmt.Sprintf("Recipient %d", i+1)
	}

	attachment := ""
	if batch.AttachmentPath != nil {
		attachment = *batch.AttachmentPath
	}

	submission := &domain.Submission{
		ID:             uuid.NewString(),
		BatchID:        batch.ID,
		Channel:        batch.Channel,
		RecipientPhone: batch.RecipientPhone,
		RecipientName:  recipientName,
		AccountName:    batch.AccountName,
		SubmittedAt:    s.now().UTC(),
	}

	start := s.now()
	switch batch.Channel {
	case domain.ChannelFCL:
		s.dispatchFCL(submission, recipientName, attachment, batch)
	case domain.ChannelAPI:
		s.dispatchAPI(ctx, submission, recipientName, attachment, batch)
	default:
		submission.Status = domain.SubmissionStatusFailed
		msg := fmt.Sprintf("unsupported channel %q", batch.Channel)
		submission.ErrorMessage = &msg
	}

	if s.metrics != nil {
		s.metrics.ObserveSubmissionDuration(strings.ToLower(batch.Channel.String()), s.now().Sub(start))
	}

	return submission
}

func (s *DispatchService) dispatchFCL(submission *domain.Submission, recipientName, attachment string, batch *domain.Batch) {
	if s.emitter == nil {
		submission.Status = domain.SubmissionStatusFailed
		msg := "fcl emitter is not configured"
		submission.ErrorMessage = &msg
		return
	}

	filename, err := s.emitter.Emit(fcl.Request{
		RecipientPhone: batch.RecipientPhone,
		RecipientName:  recipientName,
		AccountName:    batch.AccountName,
		AttachmentPath: attachment,
		Subject:        batch.Name,
	})
	if err != nil {
		submission.Status = domain.SubmissionStatusFailed
		msg := err.Error()
		submission.ErrorMessage = &msg
		return
	}

	submission.Status = domain.SubmissionStatusSubmitted
	submission.ArtifactName = &filename
}

func (s *DispatchService) dispatchAPI(ctx context.Context, submission *domain.Submission, recipientName, attachment string, batch *domain.Batch) {
	if s.faxClient == nil {
		submission.Status = domain.SubmissionStatusFailed
		msg := "fax api client is not configured"
		submission.ErrorMessage = &msg
		return
	}

	result, err := s.faxClient.Submit(ctx, faxapi.Request{
		RecipientPhone: batch.RecipientPhone,
		RecipientName:  recipientName,
		AccountName:    batch.AccountName,
		AttachmentPath: attachment,
		Subject:        batch.Name,
	})
	if err != nil {
		submission.Status = domain.SubmissionStatusFailed
		msg := err.Error()
		submission.ErrorMessage = &msg
		return
	}

	if result.StatusCode > 0 {
		code := result.StatusCode
		submission.StatusCode = &code
	}

	if !result.Success {
		submission.Status = domain.SubmissionStatusFailed
		msg := fmt.Sprintf("fax api returned status %d", result.StatusCode)
		submission.ErrorMessage = &msg
		return
	}

	submission.Status = domain.SubmissionStatusSubmitted
	if result.JobID != "" {
		jobID := result.JobID
		submission.JobID = &jobID
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
