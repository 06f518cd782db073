package domain

import "errors"

var (
	// ErrValidation marks input the caller must correct before retrying.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a missing entity.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a state transition rejected by a conditional update.
	ErrConflict = errors.New("conflict")
)
