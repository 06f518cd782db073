package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"faxrelay/internal/completion"
	"faxrelay/internal/domain"
	"faxrelay/internal/observability"
	"faxrelay/internal/queue"
	"faxrelay/internal/repository"
)

// Archiver files processed completion documents by date and quarantines
// malformed ones.
type Archiver interface {
	Archive(path string) (string, error)
	Quarantine(path string) (string, error)
}

// IngestService processes completion documents from the completion.ingest
// queue: parse, correlate, record, archive. Every step is safe to repeat, so
// a crash anywhere leaves the file eligible for another pass.
type IngestService struct {
	completions repository.CompletionRepository
	archiver    Archiver
	logger      *zap.Logger
	metrics     *observability.Metrics
	readFile    func(path string) ([]byte, error)
	now         func() time.Time
}

func NewIngestService(
	completions repository.CompletionRepository,
	archiver Archiver,
	logger *zap.Logger,
) (*IngestService, error) {
	if completions == nil {
		return nil, fmt.Errorf("completion repository is required")
	}
	if archiver == nil {
		return nil, fmt.Errorf("archiver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IngestService{
		completions: completions,
		archiver:    archiver,
		logger:      logger,
		readFile:    os.ReadFile,
		now:         time.Now,
	}, nil
}

func (s *IngestService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// HandleIngest is the completion.ingest queue handler.
func (s *IngestService) HandleIngest(ctx context.Context, body []byte) error {
	var msg queue.IngestMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: invalid ingest payload: %v", queue.ErrReject, err)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrReject, err)
	}

	if msg.CorrelationID != "" {
		ctx = observability.WithCorrelationID(ctx, msg.CorrelationID)
	}
	logger := observability.WithContextLogger(s.logger, ctx)

	if s.metrics != nil {
		s.metrics.IncWorkerInFlight(queue.QueueCompletionIngest)
		defer s.metrics.DecWorkerInFlight(queue.QueueCompletionIngest)
	}

	data, err := s.readFile(msg.Path)
	if err != nil {
		if os.IsNotExist(err) {
			// Another worker already archived it.
			logger.Info("completion document already gone",
				zap.String("path", msg.Path),
			)
			return nil
		}
		return fmt.Errorf("failed to read completion document: %w", err)
	}

	doc, err := completion.Parse(data)
	if err != nil {
		if errors.Is(err, completion.ErrMalformed) {
			return s.quarantine(logger, msg.Path, err)
		}
		return fmt.Errorf("failed to parse completion document: %w", err)
	}

	exists, err := s.completions.ExistsByJobID(ctx, doc.JobID)
	if err != nil {
		return fmt.Errorf("failed to check for existing completion: %w", err)
	}
	if exists {
		return s.archiveDuplicate(logger, msg.Path, doc.JobID)
	}

	record := s.buildCompletion(doc, msg.Path, data)
	if err := s.completions.CreateWithCorrelation(ctx, record); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost the insert race to another worker.
			return s.archiveDuplicate(logger, msg.Path, doc.JobID)
		}
		return fmt.Errorf("failed to record completion: %w", err)
	}

	archived, err := s.archiver.Archive(msg.Path)
	if err != nil {
		// The row exists; a redelivery will take the duplicate path and
		// retry the archive move.
		return fmt.Errorf("failed to archive completion document: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncCompletionIngested("recorded")
	}
	logger.Info("completion recorded",
		zap.String("jobId", doc.JobID),
		zap.Bool("success", doc.Success),
		zap.String("archivedTo", archived),
	)
	return nil
}

func (s *IngestService) quarantine(logger *zap.Logger, path string, parseErr error) error {
	quarantined, err := s.archiver.Quarantine(path)
	if err != nil {
		return fmt.Errorf("failed to quarantine malformed document: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncCompletionIngested("malformed")
	}
	logger.Warn("malformed completion document quarantined",
		zap.String("path", path),
		zap.String("quarantinedTo", quarantined),
		zap.Error(parseErr),
	)
	return nil
}

func (s *IngestService) archiveDuplicate(logger *zap.Logger, path string, jobID string) error {
	archived, err := s.archiver.Archive(path)
	if err != nil {
		return fmt.Errorf("failed to archive duplicate document: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncCompletionIngested("duplicate")
	}
	logger.Info("duplicate completion document archived",
		zap.String("jobId", jobID),
		zap.String("archivedTo", archived),
	)
	return nil
}

func (s *IngestService) buildCompletion(doc *completion.Document, path string, raw []byte) *domain.Completion {
	return &domain.Completion{
		ID:               uuid.NewString(),
		JobID:            doc.JobID,
		SubmittedAt:      doc.SubmittedAt,
		CompletedAt:      doc.CompletedAt,
		DurationSeconds:  doc.DurationSeconds,
		Success:          doc.Success,
		ErrorCode:        doc.ErrorCode,
		ErrorDescription: doc.ErrorDescription,
		RecipientPhone:   doc.RecipientPhone,
		AccountName:      doc.AccountName,
		GoodPageCount:    doc.GoodPageCount,
		BadPageCount:     doc.BadPageCount,
		Disposition:      doc.Disposition,
		TermStat:         doc.TermStat,
		FaxHandle:        doc.FaxHandle,
		FaxChannel:       doc.FaxChannel,
		FaxServer:        doc.FaxServer,
		JobType:          doc.JobType,
		JobCreatedAt:     doc.JobCreatedAt,
		SourceFilename:   filepath.Base(path),
		RawDocument:      string(raw),
		ParsedAt:         s.now().UTC(),
	}
}
