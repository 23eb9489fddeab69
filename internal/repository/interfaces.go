// Package repository defines data access interfaces for Biblio.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, PostgreSQL, in-memory for testing) while
// keeping the service layer clean.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/biblio/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update updates an existing user.
	Update(ctx context.Context, user *domain.User) error

	// List returns all users with pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.User], error)

	// ListActive returns every active user, for report joins.
	ListActive(ctx context.Context) ([]*domain.User, error)

	// ExistsByEmail checks if a user with the given email exists,
	// active or soft-deleted.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// CountActive returns the number of active users.
	CountActive(ctx context.Context) (int64, error)
}

// =============================================================================
// Book Repository
// =============================================================================

// BookFilter narrows a book listing.
type BookFilter struct {
	// Genre matches exactly when set.
	Genre string

	// Author matches as a case-insensitive substring when set.
	Author string

	// Search matches title, author, or ISBN as a case-insensitive
	// substring when set.
	Search string

	// AvailableOnly keeps only books with at least one copy on the shelf.
	AvailableOnly bool
}

// BookRepository defines the interface for book data access.
type BookRepository interface {
	// Create creates a new book.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by ID.
	GetByID(ctx context.Context, id int64) (*domain.Book, error)

	// Update updates an existing book.
	Update(ctx context.Context, book *domain.Book) error

	// List returns active books matching the filter, with pagination.
	List(ctx context.Context, filter BookFilter, opts ListOptions) (*ListResult[domain.Book], error)

	// ListActive returns every active book matching the filter, for
	// report computations.
	ListActive(ctx context.Context, filter BookFilter) ([]*domain.Book, error)

	// ExistsByISBN checks if a book with the given ISBN exists,
	// active or soft-deleted.
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)

	// BorrowCopy atomically decrements available_copies if at least one
	// copy remains and the book is active. Returns
	// domain.ErrBookUnavailable when no row matched, so concurrent
	// borrowers of the last copy cannot both succeed.
	BorrowCopy(ctx context.Context, id int64) error

	// ReturnCopy atomically increments available_copies, guarded so the
	// count never exceeds total_copies.
	ReturnCopy(ctx context.Context, id int64) error

	// CountActive returns the number of active books.
	CountActive(ctx context.Context) (int64, error)
}

// =============================================================================
// Borrow Repository
// =============================================================================

// BorrowFilter narrows a borrow-record listing.
type BorrowFilter struct {
	// UserID keeps records of one user when non-zero.
	UserID int64

	// BookID keeps records of one book when non-zero.
	BookID int64

	// Status keeps records in one stored state when set.
	Status domain.BorrowStatus

	// OverdueOnly keeps active records past due as of Now.
	OverdueOnly bool

	// Now is the reference instant for OverdueOnly.
	Now time.Time

	// OrderByDueDate sorts ascending by due date instead of the
	// default newest-first ordering.
	OrderByDueDate bool
}

// BorrowRepository defines the interface for borrow-record data access.
// Records form a historical ledger and are never deleted.
type BorrowRepository interface {
	// Create creates a new borrow record.
	Create(ctx context.Context, rec *domain.BorrowRecord) error

	// GetByID retrieves a borrow record by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BorrowRecord, error)

	// Update updates an existing borrow record.
	Update(ctx context.Context, rec *domain.BorrowRecord) error

	// List returns records matching the filter, with pagination.
	List(ctx context.Context, filter BorrowFilter, opts ListOptions) (*ListResult[domain.BorrowRecord], error)

	// ListAll returns the full ledger, for report computations.
	ListAll(ctx context.Context) ([]*domain.BorrowRecord, error)

	// CountActiveByUser returns the user's number of active records.
	CountActiveByUser(ctx context.Context, userID int64) (int64, error)

	// CountOverdueByUser returns the user's number of active records
	// past due as of now.
	CountOverdueByUser(ctx context.Context, userID int64, now time.Time) (int64, error)

	// CountActiveByBook returns the book's number of active records.
	CountActiveByBook(ctx context.Context, bookID int64) (int64, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// CountActive returns the number of active records.
	CountActive(ctx context.Context) (int64, error)

	// CountOverdue returns the number of active records past due as of now.
	CountOverdue(ctx context.Context, now time.Time) (int64, error)

	// SumFines returns the total fines across the full ledger.
	SumFines(ctx context.Context) (float64, error)
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains common pagination options.
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return.
	Limit int
}

// ListResult is a generic paginated list result.
type ListResult[T any] struct {
	// Items is the list of items.
	Items []*T

	// Total is the total number of items (without pagination).
	Total int64

	// Offset is the current offset.
	Offset int

	// Limit is the current limit.
	Limit int
}

// Repositories holds all repository instances.
type Repositories struct {
	Users   UserRepository
	Books   BookRepository
	Borrows BorrowRepository
}

// DatabaseHealth is an interface for database health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}
