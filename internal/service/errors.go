package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service wraps exactly one of these,
// so callers branch with errors.Is on the kind.
var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrAdminRequired      = fmt.Errorf("%w: admin privileges required", ErrForbidden)

	ErrUserNotFound    = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrBookNotFound    = fmt.Errorf("%w: book not found", ErrNotFound)
	ErrLoanNotFound    = fmt.Errorf("%w: loan not found", ErrNotFound)
	ErrNoActiveLoans   = fmt.Errorf("%w: no active loans", ErrNotFound)
	ErrAlreadyBorrowed = fmt.Errorf("%w: book already borrowed by this user, it must be returned first", ErrConflict)
	ErrDuplicateLoan   = fmt.Errorf("%w: a loan for this book already exists at that instant", ErrConflict)
	ErrBookOnLoan      = fmt.Errorf("%w: book has an active loan", ErrConflict)
	ErrAlreadyReturned = fmt.Errorf("%w: loan already returned", ErrInvalidTransition)
)

// validationError builds an ErrValidation for a single field.
func validationError(field, msg string) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, msg)
}
