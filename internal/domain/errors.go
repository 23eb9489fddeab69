// Package domain contains the core business entities for Biblio.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Authentication/Authorization Errors
	// ===========================================

	// ErrUnauthorized indicates no caller identity is present.
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden indicates the caller lacks the required role or ownership.
	ErrForbidden = errors.New("access denied")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates a user with the same email already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserInactive indicates the user account has been deactivated.
	ErrUserInactive = errors.New("user account is inactive")

	// ===========================================
	// Book Errors
	// ===========================================

	// ErrBookNotFound indicates the requested book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrISBNTaken indicates a book with the same ISBN already exists.
	ErrISBNTaken = errors.New("isbn already registered")

	// ErrBookHasActiveBorrows indicates the book cannot be removed while copies are out.
	ErrBookHasActiveBorrows = errors.New("book has active borrows")

	// ===========================================
	// Borrow Lifecycle Errors
	// ===========================================

	// ErrBorrowNotFound indicates the requested borrow record does not exist.
	ErrBorrowNotFound = errors.New("borrow record not found")

	// ErrIneligibleBorrower indicates the user is at the active-borrow
	// limit or holds an overdue book.
	ErrIneligibleBorrower = errors.New("user has reached maximum borrow limit or has overdue books")

	// ErrBookUnavailable indicates no copy is available for borrowing.
	ErrBookUnavailable = errors.New("book is not available for borrowing")

	// ErrAlreadyReturned indicates the record is not active.
	ErrAlreadyReturned = errors.New("book has already been returned")

	// ErrCannotRenewOverdue indicates an overdue record may not be renewed.
	ErrCannotRenewOverdue = errors.New("overdue books cannot be renewed")

	// ===========================================
	// General Errors
	// ===========================================

	// ErrValidation indicates malformed or missing input fields.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable indicates a transient store failure.
	ErrUnavailable = errors.New("service temporarily unavailable")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., book ISBN, user email).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// Validationf returns a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
