package service

import (
	"errors"

	"sample-app/internal/domain"
)

// Error kinds. Every sentinel below matches exactly one of them with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
)

var (
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = withKind(ErrConflict, errors.New("user already exists"))
	// ErrInvalidUsername is returned for a blank username.
	ErrInvalidUsername = withKind(ErrValidation, errors.New("username is required"))
	// ErrInvalidEmail wraps domain.ErrInvalidEmail as a validation error.
	ErrInvalidEmail = withKind(ErrValidation, domain.ErrInvalidEmail)
	// ErrWeakPassword wraps domain.ErrWeakPassword as a validation error.
	ErrWeakPassword = withKind(ErrValidation, domain.ErrWeakPassword)
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = withKind(ErrAuthentication, errors.New("invalid username or password"))
	// ErrAccountInactive is returned when a deactivated user tries to log in.
	ErrAccountInactive = withKind(ErrAuthentication, errors.New("account is deactivated"))
	// ErrUserNotFound is returned by user lookups for an unknown username.
	ErrUserNotFound = errors.New("user not found")

	ErrInvalidAmount = withKind(ErrValidation, errors.New("amount must be positive"))
	ErrInvalidCard   = withKind(ErrValidation, errors.New("invalid card number"))
	ErrNotRefundable = withKind(ErrValidation, errors.New("only successful transactions can be refunded"))
)

type kindError struct {
	kind error
	err  error
}

func withKind(kind, err error) error {
	return &kindError{kind: kind, err: err}
}

func (e *kindError) Error() string {
	return e.err.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.err, e.kind}
}
