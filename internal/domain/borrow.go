package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// BorrowStatus is the stored lifecycle state of a borrow record.
// "Overdue" is deliberately not a stored status: it is derived at read
// time from DueDate, so the ledger never needs a background sweep to
// stay consistent.
type BorrowStatus string

const (
	// BorrowActive means the book is out and ReturnDate is unset.
	BorrowActive BorrowStatus = "active"

	// BorrowReturned means the book came back and the record is final.
	BorrowReturned BorrowStatus = "returned"
)

// BorrowRecord is the transaction linking one User and one Book.
// Records are a historical ledger: they are created on borrow, mutated
// on return/renew, and never deleted.
type BorrowRecord struct {
	// ID is the unique identifier for the record.
	ID uuid.UUID `json:"id"`

	// UserID references the borrowing user by identity.
	UserID int64 `json:"user_id"`

	// BookID references the borrowed book by identity.
	BookID int64 `json:"book_id"`

	// BorrowDate is when the book was checked out.
	BorrowDate time.Time `json:"borrow_date"`

	// DueDate is when the book must be returned.
	DueDate time.Time `json:"due_date"`

	// ReturnDate is set when the book comes back. A record is active
	// iff ReturnDate is nil.
	ReturnDate *time.Time `json:"return_date,omitempty"`

	// Status is the stored lifecycle state (active or returned).
	Status BorrowStatus `json:"status"`

	// Fine is the monetary penalty computed at return time. Always >= 0.
	Fine float64 `json:"fine"`

	// RenewalCount is how many times the due date was extended.
	RenewalCount int `json:"renewal_count"`

	// Notes carries optional free-form remarks.
	Notes string `json:"notes,omitempty"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the record was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBorrowRecord creates an active borrow record due loanPeriod from now.
func NewBorrowRecord(userID, bookID int64, loanPeriod time.Duration, notes string) *BorrowRecord {
	now := time.Now().UTC()
	return &BorrowRecord{
		ID:         uuid.New(),
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: now,
		DueDate:    now.Add(loanPeriod),
		Status:     BorrowActive,
		Fine:       0,
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsActive returns true if the book is still out.
func (r *BorrowRecord) IsActive() bool {
	return r.Status == BorrowActive
}

// IsOverdue returns true if the record is active and past its due date.
func (r *BorrowRecord) IsOverdue(now time.Time) bool {
	return r.Status == BorrowActive && r.DueDate.Before(now)
}

// DaysLate returns the whole number of days the record is past due at
// the given instant, rounded up. Zero when on time.
func (r *BorrowRecord) DaysLate(now time.Time) int {
	late := now.Sub(r.DueDate)
	if late <= 0 {
		return 0
	}
	return int(math.Ceil(late.Hours() / 24))
}

// CalculateFine returns the penalty owed if the record were returned at
// the given instant.
func (r *BorrowRecord) CalculateFine(now time.Time, finePerDay float64) float64 {
	return float64(r.DaysLate(now)) * finePerDay
}

// BorrowDuration returns the days between borrow and return for a
// returned record, or 0 and false while the book is still out.
func (r *BorrowRecord) BorrowDuration() (float64, bool) {
	if r.ReturnDate == nil {
		return 0, false
	}
	return r.ReturnDate.Sub(r.BorrowDate).Hours() / 24, true
}
