package service

import (
	"context"
	"time"

	"faxrelay/internal/domain"
	"faxrelay/internal/faxapi"
	"faxrelay/internal/fcl"
	"faxrelay/internal/queue"
)

type fakeBatchRepo struct {
	createFn             func(ctx context.Context, b *domain.Batch) error
	getByIDFn            func(ctx context.Context, id string) (*domain.Batch, error)
	getStatusFn          func(ctx context.Context, id string) (domain.BatchStatus, error)
	markInProgressFn     func(ctx context.Context, id string) error
	completeFn           func(ctx context.Context, id string) error
	failFn               func(ctx context.Context, id string, reason string) error
	cancelFn             func(ctx context.Context, id string) error
	retriggerFn          func(ctx context.Context, id string) error
	incrementSubmittedFn func(ctx context.Context, id string) error
}

func (f *fakeBatchRepo) Create(ctx context.Context, b *domain.Batch) error {
	if f.createFn != nil {
		return f.createFn(ctx, b)
	}
	return nil
}

func (f *fakeBatchRepo) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBatchRepo) GetStatus(ctx context.Context, id string) (domain.BatchStatus, error) {
	if f.getStatusFn != nil {
		return f.getStatusFn(ctx, id)
	}
	return domain.BatchStatusInProgress, nil
}

func (f *fakeBatchRepo) MarkInProgress(ctx context.Context, id string) error {
	if f.markInProgressFn != nil {
		return f.markInProgressFn(ctx, id)
	}
	return nil
}

func (f *fakeBatchRepo) Complete(ctx context.Context, id string) error {
	if f.completeFn != nil {
		return f.completeFn(ctx, id)
	}
	return nil
}

func (f *fakeBatchRepo) Fail(ctx context.Context, id string, reason string) error {
	if f.failFn != nil {
		return f.failFn(ctx, id, reason)
	}
	return nil
}

func (f *fakeBatchRepo) Cancel(ctx context.Context, id string) error {
	if f.cancelFn != nil {
		return f.cancelFn(ctx, id)
	}
	return nil
}

func (f *fakeBatchRepo) Retrigger(ctx context.Context, id string) error {
	if f.retriggerFn != nil {
		return f.retriggerFn(ctx, id)
	}
	return nil
}

func (f *fakeBatchRepo) IncrementSubmitted(ctx context.Context, id string) error {
	if f.incrementSubmittedFn != nil {
		return f.incrementSubmittedFn(ctx, id)
	}
	return nil
}

type fakeSubmissionRepo struct {
	createFn       func(ctx context.Context, s *domain.Submission) error
	getByJobIDFn   func(ctx context.Context, jobID string) (*domain.Submission, error)
	listByBatchFn  func(ctx context.Context, batchID string) ([]domain.Submission, error)
	countByBatchFn func(ctx context.Context, batchID string) (int64, error)
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, s *domain.Submission) error {
	if f.createFn != nil {
		return f.createFn(ctx, s)
	}
	return nil
}

func (f *fakeSubmissionRepo) GetByJobID(ctx context.Context, jobID string) (*domain.Submission, error) {
	if f.getByJobIDFn != nil {
		return f.getByJobIDFn(ctx, jobID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSubmissionRepo) ListByBatch(ctx context.Context, batchID string) ([]domain.Submission, error) {
	if f.listByBatchFn != nil {
		return f.listByBatchFn(ctx, batchID)
	}
	return nil, nil
}

func (f *fakeSubmissionRepo) CountByBatch(ctx context.Context, batchID string) (int64, error) {
	if f.countByBatchFn != nil {
		return f.countByBatchFn(ctx, batchID)
	}
	return 0, nil
}

type fakeCompletionRepo struct {
	createFn       func(ctx context.Context, c *domain.Completion) error
	existsByJobFn  func(ctx context.Context, jobID string) (bool, error)
	getByJobIDFn   func(ctx context.Context, jobID string) (*domain.Completion, error)
}

func (f *fakeCompletionRepo) CreateWithCorrelation(ctx context.Context, c *domain.Completion) error {
	if f.createFn != nil {
		return f.createFn(ctx, c)
	}
	return nil
}

func (f *fakeCompletionRepo) ExistsByJobID(ctx context.Context, jobID string) (bool, error) {
	if f.existsByJobFn != nil {
		return f.existsByJobFn(ctx, jobID)
	}
	return false, nil
}

func (f *fakeCompletionRepo) GetByJobID(ctx context.Context, jobID string) (*domain.Completion, error) {
	if f.getByJobIDFn != nil {
		return f.getByJobIDFn(ctx, jobID)
	}
	return nil, domain.ErrNotFound
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.Message) error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.Message) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, queueName, msg)
	}
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeEmitter struct {
	emitFn func(req fcl.Request) (string, error)
}

func (f *fakeEmitter) Emit(req fcl.Request) (string, error) {
	if f.emitFn != nil {
		return f.emitFn(req)
	}
	return "fax_00000000000000000000_0001.fcl", nil
}

type fakeFaxClient struct {
	submitFn func(ctx context.Context, req faxapi.Request) (*faxapi.Result, error)
}

func (f *fakeFaxClient) Submit(ctx context.Context, req faxapi.Request) (*faxapi.Result, error) {
	if f.submitFn != nil {
		return f.submitFn(ctx, req)
	}
	return &faxapi.Result{Success: true, JobID: "job-1", StatusCode: 201}, nil
}

type fakeLimiter struct {
	allowFn func(ctx context.Context, scope string) (bool, error)
	waitFn  func(ctx context.Context, scope string) error
}

func (f *fakeLimiter) Allow(ctx context.Context, scope string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, scope)
	}
	return true, nil
}

func (f *fakeLimiter) Wait(ctx context.Context, scope string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, scope)
	}
	return nil
}

type fakeArchiver struct {
	archiveFn    func(path string) (string, error)
	quarantineFn func(path string) (string, error)
	sweepFn      func(ctx context.Context, retention time.Duration) (int, error)
}

func (f *fakeArchiver) Archive(path string) (string, error) {
	if f.archiveFn != nil {
		return f.archiveFn(path)
	}
	return "/archive/" + path, nil
}

func (f *fakeArchiver) Quarantine(path string) (string, error) {
	if f.quarantineFn != nil {
		return f.quarantineFn(path)
	}
	return "/archive/errors/" + path, nil
}

func (f *fakeArchiver) Sweep(ctx context.Context, retention time.Duration) (int, error) {
	if f.sweepFn != nil {
		return f.sweepFn(ctx, retention)
	}
	return 0, nil
}
