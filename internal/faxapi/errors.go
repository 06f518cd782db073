package faxapi

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ChannelError classifies transport-level submission failures. HTTP-level
// rejections are not errors; they come back as a failed Result.
type ChannelError struct {
	Message   string
	Transient bool
	Cause     error
}

func (e *ChannelError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 3)
	parts = append(parts, "fax api error")

	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *ChannelError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsTransient reports whether a submission error is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var channelErr *ChannelError
	if errors.As(err, &channelErr) {
		return channelErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

func wrapTransport(err error) error {
	return &ChannelError{
		Message:   "submission request failed",
		Transient: !errors.Is(err, context.Canceled),
		Cause:     err,
	}
}
