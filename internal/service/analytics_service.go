package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/biblio/internal/auth"
	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
)

// AnalyticsService produces read-only derived reports over the borrow
// ledger and the catalog. Reports are computed fresh per call as
// in-process grouping over the fetched collections; nothing here
// mutates state or caches results.
//
// All reports are admin-only.
type AnalyticsService struct {
	borrowRepo repository.BorrowRepository
	bookRepo   repository.BookRepository
	userRepo   repository.UserRepository
	logger     zerolog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(
	borrowRepo repository.BorrowRepository,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	logger zerolog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		borrowRepo: borrowRepo,
		bookRepo:   bookRepo,
		userRepo:   userRepo,
		logger:     logger.With().Str("service", "analytics").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// defaultReportLimit is applied when a caller omits or zeroes the limit.
const defaultReportLimit = 10

// BookUsage is one row of the most-borrowed-books report.
type BookUsage struct {
	Book            *domain.Book `json:"book"`
	BorrowCount     int64        `json:"borrow_count"`
	ActiveBorrows   int64        `json:"active_borrows"`
	TotalFines      float64      `json:"total_fines"`
	PopularityScore float64      `json:"popularity_score"`
}

// MostBorrowedBooks ranks active catalog books by borrow volume.
func (s *AnalyticsService) MostBorrowedBooks(ctx context.Context, limit int) ([]*BookUsage, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultReportLimit
	}

	records, err := s.borrowRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load borrow ledger")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	type group struct {
		borrowCount   int64
		activeBorrows int64
		totalFines    float64
	}
	byBook := make(map[int64]*group)
	for _, rec := range records {
		g := byBook[rec.BookID]
		if g == nil {
			g = &group{}
			byBook[rec.BookID] = g
		}
		g.borrowCount++
		if rec.IsActive() {
			g.activeBorrows++
		}
		g.totalFines += rec.Fine
	}

	books, err := s.bookRepo.ListActive(ctx, repository.BookFilter{})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load catalog")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var rows []*BookUsage
	for _, book := range books {
		g := byBook[book.ID]
		if g == nil {
			continue
		}
		rows = append(rows, &BookUsage{
			Book:            book,
			BorrowCount:     g.borrowCount,
			ActiveBorrows:   g.activeBorrows,
			TotalFines:      g.totalFines,
			PopularityScore: 0.7*float64(g.borrowCount) + 0.3*float64(g.activeBorrows),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BorrowCount != rows[j].BorrowCount {
			return rows[i].BorrowCount > rows[j].BorrowCount
		}
		return rows[i].PopularityScore > rows[j].PopularityScore
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// MemberActivity is one row of the most-active-members report.
type MemberActivity struct {
	User              *domain.User `json:"user"`
	TotalBorrows      int64        `json:"total_borrows"`
	ActiveBorrows     int64        `json:"active_borrows"`
	ReturnedBooks     int64        `json:"returned_books"`
	OverdueBooks      int64        `json:"overdue_books"`
	TotalFines        float64      `json:"total_fines"`
	TotalRenewals     int64        `json:"total_renewals"`
	AvgBorrowDuration float64      `json:"avg_borrow_duration"`
	ActivityScore     float64      `json:"activity_score"`
}

// MostActiveMembers ranks active users by borrowing activity.
func (s *AnalyticsService) MostActiveMembers(ctx context.Context, limit int) ([]*MemberActivity, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultReportLimit
	}

	records, err := s.borrowRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load borrow ledger")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	now := s.now()

	type group struct {
		totalBorrows  int64
		activeBorrows int64
		returnedBooks int64
		overdueBooks  int64
		totalFines    float64
		totalRenewals int64
		durationSum   float64
		durationCount int64
	}
	byUser := make(map[int64]*group)
	for _, rec := range records {
		g := byUser[rec.UserID]
		if g == nil {
			g = &group{}
			byUser[rec.UserID] = g
		}
		g.totalBorrows++
		if rec.IsActive() {
			g.activeBorrows++
		} else {
			g.returnedBooks++
		}
		if rec.IsOverdue(now) {
			g.overdueBooks++
		}
		g.totalFines += rec.Fine
		g.totalRenewals += int64(rec.RenewalCount)
		if days, ok := rec.BorrowDuration(); ok {
			g.durationSum += days
			g.durationCount++
		}
	}

	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var rows []*MemberActivity
	for _, user := range users {
		g := byUser[user.ID]
		if g == nil {
			continue
		}
		avg := 0.0
		if g.durationCount > 0 {
			avg = math.Round(g.durationSum/float64(g.durationCount)*10) / 10
		}
		rows = append(rows, &MemberActivity{
			User:              user,
			TotalBorrows:      g.totalBorrows,
			ActiveBorrows:     g.activeBorrows,
			ReturnedBooks:     g.returnedBooks,
			OverdueBooks:      g.overdueBooks,
			TotalFines:        g.totalFines,
			TotalRenewals:     g.totalRenewals,
			AvgBorrowDuration: avg,
			ActivityScore: 0.4*float64(g.totalBorrows) +
				0.3*float64(g.returnedBooks) +
				0.2*float64(g.totalRenewals) -
				0.1*float64(g.overdueBooks),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalBorrows != rows[j].TotalBorrows {
			return rows[i].TotalBorrows > rows[j].TotalBorrows
		}
		return rows[i].ActivityScore > rows[j].ActivityScore
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// BookAvailability is one row of the availability report.
type BookAvailability struct {
	Book                   *domain.Book              `json:"book"`
	BorrowedCopies         int64                     `json:"borrowed_copies"`
	TotalBorrows           int64                     `json:"total_borrows"`
	TotalFinesGenerated    float64                   `json:"total_fines_generated"`
	AvailabilityPercentage float64                   `json:"availability_percentage"`
	Status                 domain.AvailabilityStatus `json:"status"`
}

// AvailabilitySummary aggregates the filtered availability rows.
type AvailabilitySummary struct {
	TotalBooks          int     `json:"total_books"`
	TotalCopies         int     `json:"total_copies"`
	TotalAvailable      int     `json:"total_available"`
	TotalBorrowed       int     `json:"total_borrowed"`
	OutOfStock          int     `json:"out_of_stock"`
	LowStock            int     `json:"low_stock"`
	AvailableBooks      int     `json:"available_books"`
	OverallAvailability float64 `json:"overall_availability"`
}

// AvailabilityReportInput filters the availability report.
type AvailabilityReportInput struct {
	Genre  string
	Author string
	Search string
}

// AvailabilityReport pairs the per-book rows with their summary.
type AvailabilityReport struct {
	Books   []*BookAvailability  `json:"books"`
	Summary *AvailabilitySummary `json:"summary"`
}

// BookAvailabilityReport reports stock levels across the filtered
// active catalog, least-available books first.
func (s *AnalyticsService) BookAvailabilityReport(ctx context.Context, input AvailabilityReportInput) (*AvailabilityReport, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	books, err := s.bookRepo.ListActive(ctx, repository.BookFilter{
		Genre:  input.Genre,
		Author: input.Author,
		Search: input.Search,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load catalog")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	records, err := s.borrowRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load borrow ledger")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	type group struct {
		active     int64
		total      int64
		totalFines float64
	}
	byBook := make(map[int64]*group)
	for _, rec := range records {
		g := byBook[rec.BookID]
		if g == nil {
			g = &group{}
			byBook[rec.BookID] = g
		}
		g.total++
		if rec.IsActive() {
			g.active++
		}
		g.totalFines += rec.Fine
	}

	summary := &AvailabilitySummary{}
	rows := make([]*BookAvailability, 0, len(books))
	for _, book := range books {
		g := byBook[book.ID]
		if g == nil {
			g = &group{}
		}

		pct := 0.0
		if book.TotalCopies > 0 {
			pct = 100 * float64(book.AvailableCopies) / float64(book.TotalCopies)
		}

		status := book.StockStatus()
		rows = append(rows, &BookAvailability{
			Book:                   book,
			BorrowedCopies:         g.active,
			TotalBorrows:           g.total,
			TotalFinesGenerated:    g.totalFines,
			AvailabilityPercentage: pct,
			Status:                 status,
		})

		summary.TotalBooks++
		summary.TotalCopies += book.TotalCopies
		summary.TotalAvailable += book.AvailableCopies
		switch status {
		case domain.StockOut:
			summary.OutOfStock++
		case domain.StockLow:
			summary.LowStock++
		}
	}

	summary.TotalBorrowed = summary.TotalCopies - summary.TotalAvailable
	summary.AvailableBooks = summary.TotalBooks - summary.OutOfStock
	if summary.TotalCopies > 0 {
		summary.OverallAvailability = 100 * float64(summary.TotalAvailable) / float64(summary.TotalCopies)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AvailabilityPercentage != rows[j].AvailabilityPercentage {
			return rows[i].AvailabilityPercentage < rows[j].AvailabilityPercentage
		}
		return rows[i].TotalBorrows > rows[j].TotalBorrows
	})

	return &AvailabilityReport{Books: rows, Summary: summary}, nil
}

// GenreUsage is one row of the genre stats report.
type GenreUsage struct {
	Genre            string  `json:"genre"`
	TotalBooks       int64   `json:"total_books"`
	TotalCopies      int64   `json:"total_copies"`
	AvailableCopies  int64   `json:"available_copies"`
	BorrowedCopies   int64   `json:"borrowed_copies"`
	TotalBorrows     int64   `json:"total_borrows"`
	ActiveBorrows    int64   `json:"active_borrows"`
	TotalFines       float64 `json:"total_fines"`
	AvailabilityRate float64 `json:"availability_rate"`
	PopularityScore  float64 `json:"popularity_score"`
}

// GenreStats groups the active catalog by genre.
func (s *AnalyticsService) GenreStats(ctx context.Context) ([]*GenreUsage, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	books, err := s.bookRepo.ListActive(ctx, repository.BookFilter{})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load catalog")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	records, err := s.borrowRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load borrow ledger")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	type bookGroup struct {
		total      int64
		active     int64
		totalFines float64
	}
	byBook := make(map[int64]*bookGroup)
	for _, rec := range records {
		g := byBook[rec.BookID]
		if g == nil {
			g = &bookGroup{}
			byBook[rec.BookID] = g
		}
		g.total++
		if rec.IsActive() {
			g.active++
		}
		g.totalFines += rec.Fine
	}

	byGenre := make(map[string]*GenreUsage)
	for _, book := range books {
		row := byGenre[book.Genre]
		if row == nil {
			row = &GenreUsage{Genre: book.Genre}
			byGenre[book.Genre] = row
		}
		row.TotalBooks++
		row.TotalCopies += int64(book.TotalCopies)
		row.AvailableCopies += int64(book.AvailableCopies)
		if g := byBook[book.ID]; g != nil {
			row.TotalBorrows += g.total
			row.ActiveBorrows += g.active
			row.TotalFines += g.totalFines
		}
	}

	rows := make([]*GenreUsage, 0, len(byGenre))
	for _, row := range byGenre {
		row.BorrowedCopies = row.TotalCopies - row.AvailableCopies
		if row.TotalCopies > 0 {
			row.AvailabilityRate = 100 * float64(row.AvailableCopies) / float64(row.TotalCopies)
		}
		if row.TotalBooks > 0 {
			row.PopularityScore = float64(row.TotalBorrows) / float64(row.TotalBooks)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalBorrows != rows[j].TotalBorrows {
			return rows[i].TotalBorrows > rows[j].TotalBorrows
		}
		return rows[i].PopularityScore > rows[j].PopularityScore
	})

	return rows, nil
}

// LibraryStats is the high-level dashboard summary.
type LibraryStats struct {
	TotalUsers     int64   `json:"total_users"`
	TotalBooks     int64   `json:"total_books"`
	TotalBorrows   int64   `json:"total_borrows"`
	ActiveBorrows  int64   `json:"active_borrows"`
	OverdueBorrows int64   `json:"overdue_borrows"`
	TotalFines     float64 `json:"total_fines"`
}

// GetLibraryStats returns headline counts for the whole library.
func (s *AnalyticsService) GetLibraryStats(ctx context.Context) (*LibraryStats, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	stats := &LibraryStats{}
	var err error

	if stats.TotalUsers, err = s.userRepo.CountActive(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to count users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if stats.TotalBooks, err = s.bookRepo.CountActive(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to count books")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if stats.TotalBorrows, err = s.borrowRepo.Count(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to count borrows")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if stats.ActiveBorrows, err = s.borrowRepo.CountActive(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to count active borrows")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if stats.OverdueBorrows, err = s.borrowRepo.CountOverdue(ctx, s.now()); err != nil {
		s.logger.Error().Err(err).Msg("failed to count overdue borrows")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if stats.TotalFines, err = s.borrowRepo.SumFines(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to sum fines")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return stats, nil
}
