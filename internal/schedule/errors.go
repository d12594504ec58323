package schedule

import (
	"errors"
	"fmt"

	"github.com/example/studybot/pkg/models"
)

// Sentinel errors for the schedule package.
// Use errors.Is to check: errors.Is(err, schedule.ErrNotFound)
var (
	ErrValidation           = errors.New("schedule: validation failed")
	ErrNotFound             = errors.New("schedule: event not found")
	ErrConflict             = errors.New("schedule: event was modified concurrently")
	ErrInvalidState         = errors.New("schedule: operation not allowed in current state")
	ErrContentShapeMismatch = models.ErrContentShapeMismatch
)

// ValidationError describes a rejected form field. It matches ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schedule: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
