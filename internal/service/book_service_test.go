package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/biblio/internal/domain"
)

func newBookService(t *testing.T) (*BookService, *MockBookRepository, *MockBorrowRepository) {
	t.Helper()
	books := NewMockBookRepository()
	borrows := NewMockBorrowRepository()
	return NewBookService(books, borrows, zerolog.Nop()), books, borrows
}

func validBookInput() CreateBookInput {
	return CreateBookInput{
		Title:       "The Go Programming Language",
		Author:      "Donovan & Kernighan",
		ISBN:        "978-0134190440",
		Genre:       "Technical",
		TotalCopies: 3,
	}
}

func TestBookCreate(t *testing.T) {
	t.Run("admin creates with all copies available", func(t *testing.T) {
		svc, _, _ := newBookService(t)

		book, err := svc.Create(adminCtx(1), validBookInput())
		require.NoError(t, err)
		require.Equal(t, 3, book.TotalCopies)
		require.Equal(t, 3, book.AvailableCopies)
		require.True(t, book.IsActive)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		svc, _, _ := newBookService(t)
		_, err := svc.Create(memberCtx(1), validBookInput())
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("duplicate ISBN conflicts", func(t *testing.T) {
		svc, _, _ := newBookService(t)
		_, err := svc.Create(adminCtx(1), validBookInput())
		require.NoError(t, err)

		_, err = svc.Create(adminCtx(1), validBookInput())
		require.ErrorIs(t, err, domain.ErrISBNTaken)
	})

	t.Run("validation failures", func(t *testing.T) {
		svc, _, _ := newBookService(t)
		tests := []struct {
			name   string
			mutate func(*CreateBookInput)
		}{
			{"missing title", func(in *CreateBookInput) { in.Title = "" }},
			{"missing author", func(in *CreateBookInput) { in.Author = "" }},
			{"missing isbn", func(in *CreateBookInput) { in.ISBN = "" }},
			{"missing genre", func(in *CreateBookInput) { in.Genre = "" }},
			{"zero copies", func(in *CreateBookInput) { in.TotalCopies = 0 }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				input := validBookInput()
				tt.mutate(&input)
				_, err := svc.Create(adminCtx(1), input)
				require.ErrorIs(t, err, domain.ErrValidation)
			})
		}
	})
}

func TestBookGetByID(t *testing.T) {
	svc, books, _ := newBookService(t)
	book, err := svc.Create(adminCtx(1), validBookInput())
	require.NoError(t, err)

	t.Run("anonymous can browse", func(t *testing.T) {
		got, err := svc.GetByID(context.Background(), book.ID)
		require.NoError(t, err)
		require.Equal(t, book.ID, got.ID)
	})

	t.Run("soft-deleted book is hidden", func(t *testing.T) {
		stored, err := books.GetByID(context.Background(), book.ID)
		require.NoError(t, err)
		stored.IsActive = false
		require.NoError(t, books.Update(context.Background(), stored))

		_, err = svc.GetByID(context.Background(), book.ID)
		require.ErrorIs(t, err, domain.ErrBookNotFound)
	})
}

func TestBookUpdate(t *testing.T) {
	t.Run("growing total copies grows availability", func(t *testing.T) {
		svc, _, _ := newBookService(t)
		book, err := svc.Create(adminCtx(1), validBookInput())
		require.NoError(t, err)

		total := 5
		updated, err := svc.Update(adminCtx(1), UpdateBookInput{ID: book.ID, TotalCopies: &total})
		require.NoError(t, err)
		require.Equal(t, 5, updated.TotalCopies)
		require.Equal(t, 5, updated.AvailableCopies)
	})

	t.Run("shrinking below checked-out count conflicts", func(t *testing.T) {
		svc, books, _ := newBookService(t)
		book, err := svc.Create(adminCtx(1), validBookInput())
		require.NoError(t, err)

		// Two copies out.
		require.NoError(t, books.BorrowCopy(context.Background(), book.ID))
		require.NoError(t, books.BorrowCopy(context.Background(), book.ID))

		total := 1
		_, err = svc.Update(adminCtx(1), UpdateBookInput{ID: book.ID, TotalCopies: &total})
		require.ErrorIs(t, err, domain.ErrBookHasActiveBorrows)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		svc, _, _ := newBookService(t)
		title := "New Title"
		_, err := svc.Update(memberCtx(1), UpdateBookInput{ID: 1, Title: &title})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestBookDelete(t *testing.T) {
	t.Run("delete refused while copies are out", func(t *testing.T) {
		svc, _, borrows := newBookService(t)
		book, err := svc.Create(adminCtx(1), validBookInput())
		require.NoError(t, err)

		rec := domain.NewBorrowRecord(1, book.ID, 14*24*time.Hour, "")
		require.NoError(t, borrows.Create(context.Background(), rec))

		err = svc.Delete(adminCtx(1), book.ID)
		require.ErrorIs(t, err, domain.ErrBookHasActiveBorrows)
	})

	t.Run("soft delete keeps the row", func(t *testing.T) {
		svc, books, _ := newBookService(t)
		book, err := svc.Create(adminCtx(1), validBookInput())
		require.NoError(t, err)

		require.NoError(t, svc.Delete(adminCtx(1), book.ID))

		stored, err := books.GetByID(context.Background(), book.ID)
		require.NoError(t, err)
		require.False(t, stored.IsActive)
	})

	t.Run("member is forbidden", func(t *testing.T) {
		svc, _, _ := newBookService(t)
		err := svc.Delete(memberCtx(1), 1)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestBookList(t *testing.T) {
	svc, _, _ := newBookService(t)

	in := validBookInput()
	_, err := svc.Create(adminCtx(1), in)
	require.NoError(t, err)

	in2 := validBookInput()
	in2.ISBN = "978-0000000001"
	in2.Genre = "Fiction"
	_, err = svc.Create(adminCtx(1), in2)
	require.NoError(t, err)

	t.Run("genre filter", func(t *testing.T) {
		out, err := svc.List(context.Background(), ListBooksInput{Genre: "Fiction"})
		require.NoError(t, err)
		require.Equal(t, int64(1), out.TotalCount)
		require.Equal(t, "Fiction", out.Books[0].Genre)
	})

	t.Run("pagination clamps the limit", func(t *testing.T) {
		out, err := svc.List(context.Background(), ListBooksInput{Limit: 1000})
		require.NoError(t, err)
		require.Equal(t, int64(2), out.TotalCount)
	})
}
