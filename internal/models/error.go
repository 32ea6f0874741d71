package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Directory errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSelfModification   = errors.New("cannot modify own account")
	ErrValidation         = errors.New("validation failed")
)

// ValidationError carries a client-facing message and still matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
