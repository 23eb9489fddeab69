package domain

import (
	"time"
)

// Book represents a catalog entry. Physical copies are tracked by the
// TotalCopies/AvailableCopies counters; AvailableCopies is only ever
// adjusted through the conditional BorrowCopy/ReturnCopy repository
// operations so that 0 <= AvailableCopies <= TotalCopies always holds.
type Book struct {
	// ID is the unique identifier for the book (auto-generated).
	ID int64 `json:"id"`

	// Title is the book title.
	Title string `json:"title"`

	// Author is the book author.
	Author string `json:"author"`

	// ISBN is the unique international standard book number.
	ISBN string `json:"isbn"`

	// Genre classifies the book for catalog filtering and genre stats.
	Genre string `json:"genre"`

	// Publisher is the publishing house, if known.
	Publisher string `json:"publisher,omitempty"`

	// Description is an optional synopsis.
	Description string `json:"description,omitempty"`

	// PublicationDate is when the book was published, as supplied by
	// the cataloguer (free-form, commonly YYYY-MM-DD).
	PublicationDate string `json:"publication_date,omitempty"`

	// TotalCopies is the number of physical copies owned.
	TotalCopies int `json:"total_copies"`

	// AvailableCopies is the number of copies currently on the shelf.
	AvailableCopies int `json:"available_copies"`

	// IsActive indicates whether the book is part of the catalog.
	// Books are soft-deleted by flipping this to false.
	IsActive bool `json:"is_active"`

	// CreatedAt is the timestamp when the book was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the book was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBook creates a new Book with all copies available.
func NewBook(title, author, isbn, genre string, totalCopies int) *Book {
	now := time.Now().UTC()
	return &Book{
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		Genre:           genre,
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsAvailable returns true if the book can be borrowed right now.
func (b *Book) IsAvailable() bool {
	return b.IsActive && b.AvailableCopies > 0
}

// AvailabilityStatus labels the stock level of a book for reporting.
type AvailabilityStatus string

const (
	StockOut       AvailabilityStatus = "Out of Stock"
	StockLow       AvailabilityStatus = "Low Stock"
	StockAvailable AvailabilityStatus = "Available"
)

// StockStatus returns the reporting label for the current copy counts.
// A book is low on stock when fewer than 20% of its copies remain.
func (b *Book) StockStatus() AvailabilityStatus {
	switch {
	case b.AvailableCopies == 0:
		return StockOut
	case float64(b.AvailableCopies) < 0.2*float64(b.TotalCopies):
		return StockLow
	default:
		return StockAvailable
	}
}
