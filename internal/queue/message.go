package queue

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReject marks a delivery as unprocessable. The consumer dead-letters it
// instead of requeueing.
var ErrReject = errors.New("unprocessable message")

// Message is a broker payload with enough identity for tracing.
type Message interface {
	Validate() error
	MessageID() string
	Correlation() string
}

// DispatchMessage asks a worker to submit one batch.
type DispatchMessage struct {
	BatchID       string `json:"batchId"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func (m DispatchMessage) Validate() error {
	if strings.TrimSpace(m.BatchID) == "" {
		return fmt.Errorf("batchId is required")
	}
	return nil
}

func (m DispatchMessage) MessageID() string {
	return m.BatchID
}

func (m DispatchMessage) Correlation() string {
	return m.CorrelationID
}

// IngestMessage asks a worker to parse and record one completion document.
type IngestMessage struct {
	Path          string `json:"path"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func (m IngestMessage) Validate() error {
	if strings.TrimSpace(m.Path) == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

func (m IngestMessage) MessageID() string {
	return m.Path
}

func (m IngestMessage) Correlation() string {
	return m.CorrelationID
}
