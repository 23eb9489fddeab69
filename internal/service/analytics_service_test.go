package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/biblio/internal/domain"
)

type analyticsFixture struct {
	svc     *AnalyticsService
	users   *MockUserRepository
	books   *MockBookRepository
	borrows *MockBorrowRepository
	now     time.Time
}

func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	t.Helper()
	f := &analyticsFixture{
		users:   NewMockUserRepository(),
		books:   NewMockBookRepository(),
		borrows: NewMockBorrowRepository(),
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAnalyticsService(f.borrows, f.books, f.users, zerolog.Nop())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *analyticsFixture) addUser(t *testing.T, name string, active bool) *domain.User {
	t.Helper()
	user := domain.NewUser(name, name+"@example.com", "hash", domain.RoleMember)
	user.IsActive = active
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *analyticsFixture) addBook(t *testing.T, title, genre string, total, available int, active bool) *domain.Book {
	t.Helper()
	book := domain.NewBook(title, "Author", "isbn-"+title, genre, total)
	book.AvailableCopies = available
	book.IsActive = active
	require.NoError(t, f.books.Create(context.Background(), book))
	return book
}

// addRecord inserts a ledger row directly, bypassing the lifecycle.
func (f *analyticsFixture) addRecord(t *testing.T, userID, bookID int64, status domain.BorrowStatus, fine float64, renewals int, borrowedDaysAgo, heldDays int) *domain.BorrowRecord {
	t.Helper()
	rec := domain.NewBorrowRecord(userID, bookID, 14*24*time.Hour, "")
	rec.BorrowDate = f.now.Add(-time.Duration(borrowedDaysAgo) * 24 * time.Hour)
	rec.DueDate = rec.BorrowDate.Add(14 * 24 * time.Hour)
	rec.Status = status
	rec.Fine = fine
	rec.RenewalCount = renewals
	if status == domain.BorrowReturned {
		ret := rec.BorrowDate.Add(time.Duration(heldDays) * 24 * time.Hour)
		rec.ReturnDate = &ret
	}
	require.NoError(t, f.borrows.Create(context.Background(), rec))
	return rec
}

func TestAnalyticsRequireAdmin(t *testing.T) {
	f := newAnalyticsFixture(t)
	ctx := memberCtx(1)

	_, err := f.svc.MostBorrowedBooks(ctx, 10)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.MostActiveMembers(ctx, 10)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.BookAvailabilityReport(ctx, AvailabilityReportInput{})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.GenreStats(ctx)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.GetLibraryStats(ctx)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMostBorrowedBooks(t *testing.T) {
	f := newAnalyticsFixture(t)
	popular := f.addBook(t, "popular", "Fiction", 5, 3, true)
	quiet := f.addBook(t, "quiet", "Fiction", 5, 5, true)
	removed := f.addBook(t, "removed", "Fiction", 5, 5, false)
	user := f.addUser(t, "reader", true)

	// popular: 3 borrows, 2 active; quiet: 1 returned borrow.
	f.addRecord(t, user.ID, popular.ID, domain.BorrowActive, 0, 0, 5, 0)
	f.addRecord(t, user.ID, popular.ID, domain.BorrowActive, 0, 0, 3, 0)
	f.addRecord(t, user.ID, popular.ID, domain.BorrowReturned, 1.5, 0, 30, 10)
	f.addRecord(t, user.ID, quiet.ID, domain.BorrowReturned, 0, 0, 20, 7)
	// The removed book has history but must not appear.
	f.addRecord(t, user.ID, removed.ID, domain.BorrowReturned, 0, 0, 40, 5)

	rows, err := f.svc.MostBorrowedBooks(adminCtx(1), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, popular.ID, rows[0].Book.ID)
	require.Equal(t, int64(3), rows[0].BorrowCount)
	require.Equal(t, int64(2), rows[0].ActiveBorrows)
	require.Equal(t, 1.5, rows[0].TotalFines)
	require.InDelta(t, 0.7*3+0.3*2, rows[0].PopularityScore, 1e-9)

	require.Equal(t, quiet.ID, rows[1].Book.ID)
	require.Equal(t, int64(1), rows[1].BorrowCount)
}

func TestMostBorrowedBooksLimit(t *testing.T) {
	f := newAnalyticsFixture(t)
	user := f.addUser(t, "reader", true)
	for i := 0; i < 3; i++ {
		book := f.addBook(t, string(rune('a'+i)), "Fiction", 2, 2, true)
		f.addRecord(t, user.ID, book.ID, domain.BorrowReturned, 0, 0, 10, 5)
	}

	rows, err := f.svc.MostBorrowedBooks(adminCtx(1), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestMostActiveMembers(t *testing.T) {
	f := newAnalyticsFixture(t)
	book := f.addBook(t, "shared", "Fiction", 10, 10, true)
	busy := f.addUser(t, "busy", true)
	idle := f.addUser(t, "idle", true)
	gone := f.addUser(t, "gone", false)

	// busy: 2 returned (4 and 6 days held), 1 active overdue, 2 renewals total.
	f.addRecord(t, busy.ID, book.ID, domain.BorrowReturned, 0, 1, 20, 4)
	f.addRecord(t, busy.ID, book.ID, domain.BorrowReturned, 2, 1, 15, 6)
	f.addRecord(t, busy.ID, book.ID, domain.BorrowActive, 0, 0, 20, 0) // due 6 days ago
	// idle: one returned borrow.
	f.addRecord(t, idle.ID, book.ID, domain.BorrowReturned, 0, 0, 10, 3)
	// gone is inactive; history must not surface.
	f.addRecord(t, gone.ID, book.ID, domain.BorrowReturned, 0, 0, 10, 3)

	rows, err := f.svc.MostActiveMembers(adminCtx(1), 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Equal(t, busy.ID, rows[0].User.ID)
	require.Equal(t, int64(3), rows[0].TotalBorrows)
	require.Equal(t, int64(1), rows[0].ActiveBorrows)
	require.Equal(t, int64(2), rows[0].ReturnedBooks)
	require.Equal(t, int64(1), rows[0].OverdueBooks)
	require.Equal(t, int64(2), rows[0].TotalRenewals)
	require.Equal(t, 5.0, rows[0].AvgBorrowDuration)
	require.InDelta(t, 0.4*3+0.3*2+0.2*2-0.1*1, rows[0].ActivityScore, 1e-9)

	require.Equal(t, idle.ID, rows[1].User.ID)
}

func TestBookAvailabilityReport(t *testing.T) {
	f := newAnalyticsFixture(t)
	out := f.addBook(t, "gone", "Fiction", 4, 0, true)
	low := f.addBook(t, "scarce", "Fiction", 10, 1, true)
	full := f.addBook(t, "plenty", "Fiction", 5, 5, true)
	user := f.addUser(t, "reader", true)

	f.addRecord(t, user.ID, out.ID, domain.BorrowActive, 0, 0, 2, 0)
	f.addRecord(t, user.ID, out.ID, domain.BorrowReturned, 3, 0, 30, 10)

	report, err := f.svc.BookAvailabilityReport(adminCtx(1), AvailabilityReportInput{})
	require.NoError(t, err)
	require.Len(t, report.Books, 3)

	// Least available first.
	require.Equal(t, out.ID, report.Books[0].Book.ID)
	require.Equal(t, domain.StockOut, report.Books[0].Status)
	require.Equal(t, int64(1), report.Books[0].BorrowedCopies)
	require.Equal(t, int64(2), report.Books[0].TotalBorrows)
	require.Equal(t, 3.0, report.Books[0].TotalFinesGenerated)
	require.Zero(t, report.Books[0].AvailabilityPercentage)

	require.Equal(t, low.ID, report.Books[1].Book.ID)
	require.Equal(t, domain.StockLow, report.Books[1].Status)

	require.Equal(t, full.ID, report.Books[2].Book.ID)
	require.Equal(t, domain.StockAvailable, report.Books[2].Status)

	s := report.Summary
	require.Equal(t, 3, s.TotalBooks)
	require.Equal(t, 19, s.TotalCopies)
	require.Equal(t, 6, s.TotalAvailable)
	require.Equal(t, 13, s.TotalBorrowed)
	require.Equal(t, 1, s.OutOfStock)
	require.Equal(t, 1, s.LowStock)
	require.Equal(t, 2, s.AvailableBooks)
	require.InDelta(t, 100*6.0/19.0, s.OverallAvailability, 1e-9)
}

func TestBookAvailabilityReportEmptyCatalog(t *testing.T) {
	f := newAnalyticsFixture(t)

	report, err := f.svc.BookAvailabilityReport(adminCtx(1), AvailabilityReportInput{})
	require.NoError(t, err)
	require.Empty(t, report.Books)
	// Division by zero must yield 0, not NaN.
	require.Zero(t, report.Summary.OverallAvailability)
}

func TestGenreStats(t *testing.T) {
	f := newAnalyticsFixture(t)
	scifi1 := f.addBook(t, "dune", "SciFi", 4, 2, true)
	scifi2 := f.addBook(t, "foundation", "SciFi", 2, 2, true)
	poetry := f.addBook(t, "leaves", "Poetry", 1, 1, true)
	user := f.addUser(t, "reader", true)

	f.addRecord(t, user.ID, scifi1.ID, domain.BorrowActive, 0, 0, 2, 0)
	f.addRecord(t, user.ID, scifi1.ID, domain.BorrowActive, 0, 0, 3, 0)
	f.addRecord(t, user.ID, scifi2.ID, domain.BorrowReturned, 1, 0, 20, 5)
	_ = poetry

	rows, err := f.svc.GenreStats(adminCtx(1))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	scifi := rows[0]
	require.Equal(t, "SciFi", scifi.Genre)
	require.Equal(t, int64(2), scifi.TotalBooks)
	require.Equal(t, int64(6), scifi.TotalCopies)
	require.Equal(t, int64(4), scifi.AvailableCopies)
	require.Equal(t, int64(2), scifi.BorrowedCopies)
	require.Equal(t, int64(3), scifi.TotalBorrows)
	require.Equal(t, int64(2), scifi.ActiveBorrows)
	require.Equal(t, 1.0, scifi.TotalFines)
	require.InDelta(t, 100*4.0/6.0, scifi.AvailabilityRate, 1e-9)
	require.InDelta(t, 1.5, scifi.PopularityScore, 1e-9)

	require.Equal(t, "Poetry", rows[1].Genre)
	require.Zero(t, rows[1].TotalBorrows)
	require.Zero(t, rows[1].PopularityScore)
}

func TestGetLibraryStats(t *testing.T) {
	f := newAnalyticsFixture(t)
	user := f.addUser(t, "reader", true)
	f.addUser(t, "gone", false)
	book := f.addBook(t, "only", "Fiction", 3, 1, true)
	f.addBook(t, "removed", "Fiction", 3, 3, false)

	f.addRecord(t, user.ID, book.ID, domain.BorrowActive, 0, 0, 20, 0) // overdue
	f.addRecord(t, user.ID, book.ID, domain.BorrowActive, 0, 0, 1, 0)
	f.addRecord(t, user.ID, book.ID, domain.BorrowReturned, 4.5, 0, 40, 10)

	stats, err := f.svc.GetLibraryStats(adminCtx(1))
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TotalUsers)
	require.Equal(t, int64(1), stats.TotalBooks)
	require.Equal(t, int64(3), stats.TotalBorrows)
	require.Equal(t, int64(2), stats.ActiveBorrows)
	require.Equal(t, int64(1), stats.OverdueBorrows)
	require.Equal(t, 4.5, stats.TotalFines)
}
