// Package fcl builds and publishes FCL command artifacts for the file-drop
// submission channel. The fax server polls the drop directory, so artifacts
// are written to a temporary path and renamed into place; the rename is the
// publish step and a consumer never observes a partial file.
package fcl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"faxrelay/internal/domain"
	"go.uber.org/zap"
)

// Request carries the directives for one command artifact.
type Request struct {
	RecipientPhone string
	RecipientName  string
	AccountName    string
	AttachmentPath string
	Subject        string
	Coverpage      string
	Priority       domain.Priority
}

type Emitter struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
	pid    int
}

func NewEmitter(dir string, logger *zap.Logger) (*Emitter, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("fcl directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create fcl directory %q: %w", dir, err)
	}

	return &Emitter{
		dir:    dir,
		logger: logger,
		now:    time.Now,
		pid:    os.Getpid(),
	}, nil
}

// Emit writes one command artifact and returns its filename. Validation
// failures write nothing; write failures clean up the temporary file.
func (e *Emitter) Emit(req Request) (string, error) {
	if strings.TrimSpace(req.RecipientPhone) == "" {
		return "", fmt.Errorf("%w: recipient phone is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.AccountName) == "" {
		return "", fmt.Errorf("%w: account name is required", domain.ErrValidation)
	}

	filename := e.nextFilename()
	finalPath := filepath.Join(e.dir, filename)
	tempPath := finalPath + ".tmp"

	content := buildContent(req)

	if err := os.WriteFile(tempPath, []byte(content), 0o644); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to write command artifact %q: %w", filename, err)
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to publish command artifact %q: %w", filename, err)
	}

	e.logger.Debug("command artifact published",
		zap.String("filename", filename),
		zap.String("recipient", req.RecipientPhone),
	)

	return filename, nil
}

// nextFilename derives a collision-resistant name from a microsecond
// timestamp and a process-derived suffix.
func (e *Emitter) nextFilename() string {
	now := e.now()
	return fmt.Sprintf("fax_%s%06d_%04d.fcl",
		now.Format("20060102150405"),
		now.Nanosecond()/1000,
		e.pid%10000,
	)
}

func buildContent(req Request) string {
	lines := []string{"{{begin}}", ""}

	lines = append(lines, fmt.Sprintf("{{fax %s}}", req.RecipientPhone))
	if req.AttachmentPath != "" {
		lines = append(lines, fmt.Sprintf("{{attach %s}}", normalizePath(req.AttachmentPath)))
	}
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("{{winsecid %s}}", req.AccountName))
	lines = append(lines, "")

	if req.RecipientName != "" {
		lines = append(lines, fmt.Sprintf("{{to-name %s}}", req.RecipientName))
	}
	if req.Subject != "" {
		lines = append(lines, fmt.Sprintf("{{subject %s}}", req.Subject))
	}
	if req.Coverpage != "" {
		lines = append(lines, fmt.Sprintf("{{coverpage %s}}", req.Coverpage))
	}
	if req.Priority != "" && req.Priority != domain.PriorityNormal {
		lines = append(lines, fmt.Sprintf("{{priority %s}}", req.Priority))
	}

	lines = append(lines, "{{end}}")

	return strings.Join(lines, "\n")
}

// normalizePath converts separators to the fax server's Windows convention.
func normalizePath(path string) string {
	return strings.ReplaceAll(path, "/", `\`)
}
