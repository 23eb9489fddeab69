package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/biblio/internal/auth"
	"github.com/prn-tf/biblio/internal/config"
	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
)

// BorrowService handles the borrow/return/renew lifecycle.
//
// The availability check and decrement are a single conditional update
// in the repository (BorrowCopy), so two borrowers racing for the last
// copy cannot both succeed. The borrow record is inserted only after
// the copy is claimed, with a compensating increment if the insert
// fails.
type BorrowService struct {
	borrowRepo repository.BorrowRepository
	bookRepo   repository.BookRepository
	userRepo   repository.UserRepository
	policy     config.LibraryConfig
	logger     zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewBorrowService creates a new BorrowService.
func NewBorrowService(
	borrowRepo repository.BorrowRepository,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	policy config.LibraryConfig,
	logger zerolog.Logger,
) *BorrowService {
	return &BorrowService{
		borrowRepo: borrowRepo,
		bookRepo:   bookRepo,
		userRepo:   userRepo,
		policy:     policy,
		logger:     logger.With().Str("service", "borrow").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// BorrowBookInput contains the data needed to check out a book.
type BorrowBookInput struct {
	// UserID is the borrowing user. Zero means the caller borrows for
	// themselves; naming another user requires the admin role.
	UserID int64

	// BookID is the book to borrow.
	BookID int64

	// Notes carries optional free-form remarks onto the record.
	Notes string
}

// BorrowBook checks out one copy of a book to a user.
func (s *BorrowService) BorrowBook(ctx context.Context, input BorrowBookInput) (*domain.BorrowRecord, error) {
	caller, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	userID := input.UserID
	if userID == 0 {
		userID = caller.UserID
	}
	if userID != caller.UserID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get borrower")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if err := s.checkEligibility(ctx, userID); err != nil {
		return nil, err
	}

	// Claim the copy first. This is the only point where availability
	// is checked, and it is atomic.
	if err := s.bookRepo.BorrowCopy(ctx, input.BookID); err != nil {
		if errors.Is(err, domain.ErrBookUnavailable) {
			// Distinguish a missing book from an out-of-stock one.
			if _, getErr := s.bookRepo.GetByID(ctx, input.BookID); errors.Is(getErr, domain.ErrBookNotFound) {
				return nil, domain.ErrBookNotFound
			}
			return nil, domain.ErrBookUnavailable
		}
		s.logger.Error().Err(err).Int64("book_id", input.BookID).Msg("failed to claim copy")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	rec := domain.NewBorrowRecord(userID, input.BookID, s.policy.LoanPeriod(), input.Notes)

	if err := s.borrowRepo.Create(ctx, rec); err != nil {
		// Release the claimed copy so availability is not leaked.
		if compErr := s.bookRepo.ReturnCopy(ctx, input.BookID); compErr != nil {
			s.logger.Error().Err(compErr).Int64("book_id", input.BookID).Msg("failed to release copy after insert failure")
		}
		s.logger.Error().Err(err).Int64("user_id", userID).Int64("book_id", input.BookID).Msg("failed to create borrow record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("record_id", rec.ID.String()).
		Int64("user_id", userID).
		Int64("book_id", input.BookID).
		Time("due_date", rec.DueDate).
		Msg("book borrowed")

	return rec, nil
}

// checkEligibility enforces the lending policy for a user.
func (s *BorrowService) checkEligibility(ctx context.Context, userID int64) error {
	active, err := s.borrowRepo.CountActiveByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to count active borrows")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if active >= int64(s.policy.MaxActiveBorrows) {
		return fmt.Errorf("%w: %d of %d books out", domain.ErrIneligibleBorrower, active, s.policy.MaxActiveBorrows)
	}

	overdue, err := s.borrowRepo.CountOverdueByUser(ctx, userID, s.now())
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to count overdue borrows")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if overdue > 0 {
		return fmt.Errorf("%w: %d overdue books", domain.ErrIneligibleBorrower, overdue)
	}

	return nil
}

// Eligibility describes whether a user may borrow right now.
type Eligibility struct {
	Eligible       bool   `json:"eligible"`
	Reason         string `json:"reason,omitempty"`
	ActiveBorrows  int64  `json:"active_borrows"`
	OverdueBorrows int64  `json:"overdue_borrows"`
	MaxBorrows     int    `json:"max_borrows"`
}

// CanUserBorrow reports a user's borrowing eligibility without
// changing any state. Members may only query themselves.
func (s *BorrowService) CanUserBorrow(ctx context.Context, userID int64) (*Eligibility, error) {
	if _, err := auth.RequireSelfOrAdmin(ctx, userID); err != nil {
		return nil, err
	}

	active, err := s.borrowRepo.CountActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	overdue, err := s.borrowRepo.CountOverdueByUser(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	out := &Eligibility{
		Eligible:       true,
		ActiveBorrows:  active,
		OverdueBorrows: overdue,
		MaxBorrows:     s.policy.MaxActiveBorrows,
	}

	switch {
	case active >= int64(s.policy.MaxActiveBorrows):
		out.Eligible = false
		out.Reason = "maximum borrow limit reached"
	case overdue > 0:
		out.Eligible = false
		out.Reason = "account has overdue books"
	}

	return out, nil
}

// ReturnBook closes an active borrow record, computes the fine, and
// releases the copy back to the shelf.
func (s *BorrowService) ReturnBook(ctx context.Context, recordID uuid.UUID) (*domain.BorrowRecord, error) {
	rec, err := s.getOwned(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if !rec.IsActive() {
		return nil, domain.ErrAlreadyReturned
	}

	now := s.now()
	rec.ReturnDate = &now
	rec.Status = domain.BorrowReturned
	rec.Fine = rec.CalculateFine(now, s.policy.FinePerDay)
	rec.UpdatedAt = now

	if err := s.borrowRepo.Update(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("record_id", recordID.String()).Msg("failed to update borrow record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.bookRepo.ReturnCopy(ctx, rec.BookID); err != nil {
		s.logger.Error().Err(err).Int64("book_id", rec.BookID).Msg("failed to release copy on return")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("record_id", rec.ID.String()).
		Int64("book_id", rec.BookID).
		Float64("fine", rec.Fine).
		Msg("book returned")

	return rec, nil
}

// RenewBook extends an active record's due date by one loan period.
// Overdue records cannot be renewed.
func (s *BorrowService) RenewBook(ctx context.Context, recordID uuid.UUID) (*domain.BorrowRecord, error) {
	rec, err := s.getOwned(ctx, recordID)
	if err != nil {
		return nil, err
	}

	if !rec.IsActive() {
		return nil, domain.ErrAlreadyReturned
	}

	now := s.now()
	if rec.IsOverdue(now) {
		return nil, domain.ErrCannotRenewOverdue
	}

	rec.DueDate = rec.DueDate.Add(s.policy.LoanPeriod())
	rec.RenewalCount++
	rec.UpdatedAt = now

	if err := s.borrowRepo.Update(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("record_id", recordID.String()).Msg("failed to renew borrow record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("record_id", rec.ID.String()).
		Time("due_date", rec.DueDate).
		Int("renewal_count", rec.RenewalCount).
		Msg("borrow renewed")

	return rec, nil
}

// GetByID retrieves a borrow record. Members may only see their own.
func (s *BorrowService) GetByID(ctx context.Context, recordID uuid.UUID) (*domain.BorrowRecord, error) {
	return s.getOwned(ctx, recordID)
}

// getOwned fetches a record and enforces self-or-admin ownership.
func (s *BorrowService) getOwned(ctx context.Context, recordID uuid.UUID) (*domain.BorrowRecord, error) {
	if _, err := auth.RequireAuthenticated(ctx); err != nil {
		return nil, err
	}

	rec, err := s.borrowRepo.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, domain.ErrBorrowNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("record_id", recordID.String()).Msg("failed to get borrow record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if _, err := auth.RequireSelfOrAdmin(ctx, rec.UserID); err != nil {
		return nil, err
	}

	return rec, nil
}

// UpdateBorrowInput contains the admin patch for ledger corrections.
// Nil fields are left unchanged.
type UpdateBorrowInput struct {
	ID      uuid.UUID
	DueDate *time.Time
	Fine    *float64
	Notes   *string
}

// UpdateBorrow applies a ledger correction. Admin only.
func (s *BorrowService) UpdateBorrow(ctx context.Context, input UpdateBorrowInput) (*domain.BorrowRecord, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	rec, err := s.borrowRepo.GetByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, domain.ErrBorrowNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("record_id", input.ID.String()).Msg("failed to get borrow record for update")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.DueDate != nil {
		rec.DueDate = *input.DueDate
	}
	if input.Fine != nil {
		if *input.Fine < 0 {
			return nil, domain.Validationf("fine cannot be negative")
		}
		rec.Fine = *input.Fine
	}
	if input.Notes != nil {
		rec.Notes = *input.Notes
	}
	rec.UpdatedAt = s.now()

	if err := s.borrowRepo.Update(ctx, rec); err != nil {
		s.logger.Error().Err(err).Str("record_id", input.ID.String()).Msg("failed to update borrow record")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("record_id", rec.ID.String()).Msg("borrow record corrected")
	return rec, nil
}

// ListBorrowsInput contains filters and pagination for listing records.
type ListBorrowsInput struct {
	UserID      int64
	BookID      int64
	Status      domain.BorrowStatus
	OverdueOnly bool
	Limit       int
	Offset      int
}

// ListBorrowsOutput contains the result of listing records.
type ListBorrowsOutput struct {
	Records    []*domain.BorrowRecord
	TotalCount int64
}

// List returns borrow records matching the filters. Admin only.
func (s *BorrowService) List(ctx context.Context, input ListBorrowsInput) (*ListBorrowsOutput, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.list(ctx, input, false)
}

// MyBorrows returns the calling user's own records.
func (s *BorrowService) MyBorrows(ctx context.Context, input ListBorrowsInput) (*ListBorrowsOutput, error) {
	caller, err := auth.RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	input.UserID = caller.UserID
	return s.list(ctx, input, false)
}

// OverdueBorrows returns all overdue records, most overdue first.
// Admin only.
func (s *BorrowService) OverdueBorrows(ctx context.Context, input ListBorrowsInput) (*ListBorrowsOutput, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	input.OverdueOnly = true
	return s.list(ctx, input, true)
}

func (s *BorrowService) list(ctx context.Context, input ListBorrowsInput, byDueDate bool) (*ListBorrowsOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	result, err := s.borrowRepo.List(ctx, repository.BorrowFilter{
		UserID:         input.UserID,
		BookID:         input.BookID,
		Status:         input.Status,
		OverdueOnly:    input.OverdueOnly,
		Now:            s.now(),
		OrderByDueDate: byDueDate,
	}, repository.ListOptions{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list borrow records")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListBorrowsOutput{
		Records:    result.Items,
		TotalCount: result.Total,
	}, nil
}
