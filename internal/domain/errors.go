package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound          = errors.New("domain: not found")
	ErrConflict          = errors.New("domain: conflict")
	ErrUnauthorized      = errors.New("domain: unauthorized")
	ErrForbidden         = errors.New("domain: forbidden")
	ErrValidation        = errors.New("domain: validation failed")
	ErrUnknownTable      = errors.New("domain: unknown table")
	ErrInsufficientStock = errors.New("domain: insufficient stock")
	ErrPlanLimit         = errors.New("domain: plan limit reached")
)

// ConstraintError reports a write the database rejected because of a
// constraint (unique, foreign key, check). Message is the backend's own text
// and is shown to the user unchanged.
type ConstraintError struct {
	Code       string
	Constraint string
	Message    string
}

func (e *ConstraintError) Error() string { return e.Message }

func (e *ConstraintError) Unwrap() error { return ErrConflict }

// ValidationError names the first input rule that failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
