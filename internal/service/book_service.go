package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/biblio/internal/auth"
	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
)

// BookService handles catalog management.
type BookService struct {
	bookRepo   repository.BookRepository
	borrowRepo repository.BorrowRepository
	logger     zerolog.Logger
}

// NewBookService creates a new BookService.
func NewBookService(bookRepo repository.BookRepository, borrowRepo repository.BorrowRepository, logger zerolog.Logger) *BookService {
	return &BookService{
		bookRepo:   bookRepo,
		borrowRepo: borrowRepo,
		logger:     logger.With().Str("service", "book").Logger(),
	}
}

// CreateBookInput contains the data needed to add a book to the catalog.
type CreateBookInput struct {
	Title           string
	Author          string
	ISBN            string
	Genre           string
	Publisher       string
	Description     string
	PublicationDate string
	TotalCopies     int
}

// Create adds a new book to the catalog. Admin only.
func (s *BookService) Create(ctx context.Context, input CreateBookInput) (*domain.Book, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	if input.Title == "" {
		return nil, domain.Validationf("title is required")
	}
	if input.Author == "" {
		return nil, domain.Validationf("author is required")
	}
	if input.ISBN == "" {
		return nil, domain.Validationf("isbn is required")
	}
	if input.Genre == "" {
		return nil, domain.Validationf("genre is required")
	}
	if input.TotalCopies < 1 {
		return nil, domain.Validationf("total_copies must be at least 1")
	}

	// Uniqueness holds across active and soft-deleted books.
	exists, err := s.bookRepo.ExistsByISBN(ctx, input.ISBN)
	if err != nil {
		s.logger.Error().Err(err).Str("isbn", input.ISBN).Msg("failed to check ISBN existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrISBNTaken, input.ISBN)
	}

	book := domain.NewBook(input.Title, input.Author, input.ISBN, input.Genre, input.TotalCopies)
	book.Publisher = input.Publisher
	book.Description = input.Description
	book.PublicationDate = input.PublicationDate

	if err := s.bookRepo.Create(ctx, book); err != nil {
		if errors.Is(err, domain.ErrISBNTaken) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("isbn", input.ISBN).Msg("failed to create book")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("book_id", book.ID).
		Str("title", book.Title).
		Int("total_copies", book.TotalCopies).
		Msg("book created")

	return book, nil
}

// GetByID retrieves a book from the catalog. No authentication needed;
// the catalog is browsable by anyone.
func (s *BookService) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("book_id", id).Msg("failed to get book")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// Soft-deleted books are not part of the browsable catalog.
	if !book.IsActive {
		return nil, domain.ErrBookNotFound
	}

	return book, nil
}

// ListBooksInput contains filters and pagination for listing books.
type ListBooksInput struct {
	Genre         string
	Author        string
	Search        string
	AvailableOnly bool
	Limit         int
	Offset        int
}

// ListBooksOutput contains the result of listing books.
type ListBooksOutput struct {
	Books      []*domain.Book
	TotalCount int64
}

// List returns active catalog books matching the filters.
func (s *BookService) List(ctx context.Context, input ListBooksInput) (*ListBooksOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	result, err := s.bookRepo.List(ctx, repository.BookFilter{
		Genre:         input.Genre,
		Author:        input.Author,
		Search:        input.Search,
		AvailableOnly: input.AvailableOnly,
	}, repository.ListOptions{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list books")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListBooksOutput{
		Books:      result.Items,
		TotalCount: result.Total,
	}, nil
}

// UpdateBookInput contains the patch for updating a book.
// Nil fields are left unchanged.
type UpdateBookInput struct {
	ID              int64
	Title           *string
	Author          *string
	ISBN            *string
	Genre           *string
	Publisher       *string
	Description     *string
	PublicationDate *string
	TotalCopies     *int
}

// Update applies a partial update to a book. Admin only.
//
// Changing TotalCopies shifts AvailableCopies by the same delta so the
// number of copies currently out is preserved; shrinking below the
// checked-out count is refused.
func (s *BookService) Update(ctx context.Context, input UpdateBookInput) (*domain.Book, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	book, err := s.bookRepo.GetByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("book_id", input.ID).Msg("failed to get book for update")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, domain.Validationf("title cannot be empty")
		}
		book.Title = *input.Title
	}
	if input.Author != nil {
		if *input.Author == "" {
			return nil, domain.Validationf("author cannot be empty")
		}
		book.Author = *input.Author
	}
	if input.ISBN != nil && *input.ISBN != book.ISBN {
		if *input.ISBN == "" {
			return nil, domain.Validationf("isbn cannot be empty")
		}
		exists, err := s.bookRepo.ExistsByISBN(ctx, *input.ISBN)
		if err != nil {
			s.logger.Error().Err(err).Str("isbn", *input.ISBN).Msg("failed to check ISBN existence")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", domain.ErrISBNTaken, *input.ISBN)
		}
		book.ISBN = *input.ISBN
	}
	if input.Genre != nil {
		if *input.Genre == "" {
			return nil, domain.Validationf("genre cannot be empty")
		}
		book.Genre = *input.Genre
	}
	if input.Publisher != nil {
		book.Publisher = *input.Publisher
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.PublicationDate != nil {
		book.PublicationDate = *input.PublicationDate
	}

	if input.TotalCopies != nil {
		if *input.TotalCopies < 1 {
			return nil, domain.Validationf("total_copies must be at least 1")
		}
		delta := *input.TotalCopies - book.TotalCopies
		newAvailable := book.AvailableCopies + delta
		if newAvailable < 0 {
			return nil, fmt.Errorf("%w: %d copies are currently borrowed", domain.ErrBookHasActiveBorrows, book.TotalCopies-book.AvailableCopies)
		}
		book.TotalCopies = *input.TotalCopies
		book.AvailableCopies = newAvailable
	}

	book.UpdatedAt = time.Now().UTC()

	if err := s.bookRepo.Update(ctx, book); err != nil {
		if errors.Is(err, domain.ErrISBNTaken) || errors.Is(err, domain.ErrBookNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("book_id", book.ID).Msg("failed to update book")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("book_id", book.ID).Msg("book updated")
	return book, nil
}

// Delete soft-deletes a book from the catalog. Admin only.
// Refused while any copy is still out, so active borrow records never
// point at a removed book.
func (s *BookService) Delete(ctx context.Context, id int64) error {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return err
	}

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return err
		}
		s.logger.Error().Err(err).Int64("book_id", id).Msg("failed to get book for delete")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	activeBorrows, err := s.borrowRepo.CountActiveByBook(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("book_id", id).Msg("failed to count active borrows")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if activeBorrows > 0 {
		return fmt.Errorf("%w: %d active borrows", domain.ErrBookHasActiveBorrows, activeBorrows)
	}

	book.IsActive = false
	book.UpdatedAt = time.Now().UTC()

	if err := s.bookRepo.Update(ctx, book); err != nil {
		s.logger.Error().Err(err).Int64("book_id", id).Msg("failed to deactivate book")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("book_id", id).Msg("book removed from catalog")
	return nil
}
