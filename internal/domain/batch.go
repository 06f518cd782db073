package domain

import (
	"fmt"
	"strings"
	"time"
)

// Channel represents the submission mechanism for a batch.
type Channel string

const (
	// ChannelFCL drops command artifacts into a directory polled by the fax server.
	ChannelFCL Channel = "FCL"
	// ChannelAPI submits each fax through the fax server's REST API.
	ChannelAPI Channel = "API"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelFCL, ChannelAPI:
		return true
	}
	return false
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// Timing represents the pacing policy between items of a batch.
type Timing string

const (
	TimingImmediate Timing = "immediate"
	TimingInterval  Timing = "interval"
)

func (t Timing) String() string { return string(t) }

func (t Timing) IsValid() bool {
	switch t {
	case TimingImmediate, TimingInterval:
		return true
	}
	return false
}

func ParseTimingFromString(s string) (Timing, error) {
	tt := Timing(strings.ToLower(strings.TrimSpace(s)))
	if !tt.IsValid() {
		return "", fmt.Errorf("%w: invalid timing %q", ErrValidation, s)
	}
	return tt, nil
}

// BatchStatus represents the lifecycle state of a submission batch.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusInProgress BatchStatus = "in_progress"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusCancelled  BatchStatus = "cancelled"
	BatchStatusFailed     BatchStatus = "failed"
)

func (s BatchStatus) String() string { return string(s) }

func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPending, BatchStatusInProgress, BatchStatusCompleted,
		BatchStatusCancelled, BatchStatusFailed:
		return true
	}
	return false
}

// Retriggerable reports whether an explicit re-trigger may reset the batch.
func (s BatchStatus) Retriggerable() bool {
	switch s {
	case BatchStatusPending, BatchStatusFailed, BatchStatusCancelled:
		return true
	}
	return false
}

func ParseBatchStatusFromString(s string) (BatchStatus, error) {
	st := BatchStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid batch status %q", ErrValidation, s)
	}
	return st, nil
}

// Priority represents the fax priority level.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) String() string { return string(p) }

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Batch is a request to submit the same fax a given number of times via one channel.
type Batch struct {
	ID              string      `gorm:"type:uuid;primaryKey"`
	Name            string      `gorm:"type:varchar(255)"`
	CreatedBy       string      `gorm:"type:varchar(100)"`
	TotalCount      int         `gorm:"not null"`
	Channel         Channel     `gorm:"type:varchar(10);not null"`
	Timing          Timing      `gorm:"type:varchar(20);not null"`
	IntervalSeconds int         `gorm:"not null;default:0"`
	RecipientPhone  string      `gorm:"type:varchar(50);not null"`
	RecipientName   string      `gorm:"type:varchar(255)"`
	AccountName     string      `gorm:"type:varchar(100);not null"`
	AttachmentPath  *string     `gorm:"type:varchar(255)"`
	Status          BatchStatus `gorm:"type:varchar(20);not null"`
	SubmittedCount  int         `gorm:"not null;default:0"`
	CompletedAt     *time.Time
	Notes           string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Batch) TableName() string { return "submission_batches" }

func (b *Batch) Validate() error {
	if strings.TrimSpace(b.RecipientPhone) == "" {
		return fmt.Errorf("%w: recipient phone is required", ErrValidation)
	}
	if strings.TrimSpace(b.AccountName) == "" {
		return fmt.Errorf("%w: account name is required", ErrValidation)
	}
	if b.TotalCount < 1 {
		return fmt.Errorf("%w: total count must be positive (got %d)", ErrValidation, b.TotalCount)
	}
	if !b.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, b.Channel)
	}
	if !b.Timing.IsValid() {
		return fmt.Errorf("%w: invalid timing %q", ErrValidation, b.Timing)
	}
	if b.Timing == TimingInterval && b.IntervalSeconds < 1 {
		return fmt.Errorf("%w: interval timing requires a positive interval", ErrValidation)
	}
	return nil
}
