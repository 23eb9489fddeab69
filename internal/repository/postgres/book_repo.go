package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
)

// bookRepository implements repository.BookRepository for PostgreSQL.
type bookRepository struct {
	db *DB
}

// NewBookRepository creates a new PostgreSQL book repository.
func NewBookRepository(db *DB) repository.BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, title, author, isbn, genre, publisher, description, publication_date, total_copies, available_copies, is_active, created_at, updated_at`

func scanBook(row pgx.Row) (*domain.Book, error) {
	book := &domain.Book{}
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Genre,
		&book.Publisher,
		&book.Description,
		&book.PublicationDate,
		&book.TotalCopies,
		&book.AvailableCopies,
		&book.IsActive,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (title, author, isbn, genre, publisher, description, publication_date, total_copies, available_copies, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		book.Title,
		book.Author,
		book.ISBN,
		book.Genre,
		book.Publisher,
		book.Description,
		book.PublicationDate,
		book.TotalCopies,
		book.AvailableCopies,
		book.IsActive,
		book.CreatedAt,
		book.UpdatedAt,
	).Scan(&book.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrISBNTaken, book.ISBN)
		}
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

// GetByID retrieves a book by ID.
func (r *bookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book, err := scanBook(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}

	return book, nil
}

// Update updates an existing book.
func (r *bookRepository) Update(ctx context.Context, book *domain.Book) error {
	book.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE books
		SET title = $1, author = $2, isbn = $3, genre = $4, publisher = $5, description = $6,
		    publication_date = $7, total_copies = $8, available_copies = $9, is_active = $10, updated_at = $11
		WHERE id = $12
	`

	result, err := r.db.Pool.Exec(ctx, query,
		book.Title,
		book.Author,
		book.ISBN,
		book.Genre,
		book.Publisher,
		book.Description,
		book.PublicationDate,
		book.TotalCopies,
		book.AvailableCopies,
		book.IsActive,
		book.UpdatedAt,
		book.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrISBNTaken, book.ISBN)
		}
		return fmt.Errorf("failed to update book: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

// buildBookFilter returns the WHERE clause and args for a filter.
// Active-only is always enforced; listings never expose removed books.
func buildBookFilter(filter repository.BookFilter) (string, []any) {
	conditions := []string{"is_active = true"}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Genre != "" {
		conditions = append(conditions, "genre = "+arg(filter.Genre))
	}
	if filter.Author != "" {
		conditions = append(conditions, "author ILIKE "+arg("%"+filter.Author+"%"))
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE %s OR author ILIKE %s OR isbn ILIKE %s)", p, p, p))
	}
	if filter.AvailableOnly {
		conditions = append(conditions, "available_copies > 0")
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns active books matching the filter, with pagination.
func (r *bookRepository) List(ctx context.Context, filter repository.BookFilter, opts repository.ListOptions) (*repository.ListResult[domain.Book], error) {
	where, args := buildBookFilter(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM books ` + where
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count books: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM books %s ORDER BY title ASC LIMIT $%d OFFSET $%d`,
		bookColumns, where, len(args)+1, len(args)+2)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books, err := collectBooks(rows)
	if err != nil {
		return nil, err
	}

	return &repository.ListResult[domain.Book]{
		Items:  books,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// ListActive returns every active book matching the filter.
func (r *bookRepository) ListActive(ctx context.Context, filter repository.BookFilter) ([]*domain.Book, error) {
	where, args := buildBookFilter(filter)

	query := `SELECT ` + bookColumns + ` FROM books ` + where + ` ORDER BY title ASC`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active books: %w", err)
	}
	defer rows.Close()

	return collectBooks(rows)
}

// ExistsByISBN checks if a book with the given ISBN exists.
func (r *bookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM books WHERE isbn = $1)`, isbn).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ISBN existence: %w", err)
	}
	return exists, nil
}

// BorrowCopy atomically claims one available copy.
// The guard in the WHERE clause makes concurrent claims on the last
// copy race safely: exactly one UPDATE matches.
func (r *bookRepository) BorrowCopy(ctx context.Context, id int64) error {
	query := `
		UPDATE books
		SET available_copies = available_copies - 1, updated_at = $2
		WHERE id = $1 AND available_copies > 0 AND is_active = true
	`

	result, err := r.db.Pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to borrow copy: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrBookUnavailable
	}

	return nil
}

// ReturnCopy atomically releases one copy back to the shelf.
func (r *bookRepository) ReturnCopy(ctx context.Context, id int64) error {
	query := `
		UPDATE books
		SET available_copies = available_copies + 1, updated_at = $2
		WHERE id = $1 AND available_copies < total_copies
	`

	result, err := r.db.Pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to return copy: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

// CountActive returns the number of active books.
func (r *bookRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM books WHERE is_active = true`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active books: %w", err)
	}
	return count, nil
}

func collectBooks(rows pgx.Rows) ([]*domain.Book, error) {
	var books []*domain.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}

// Ensure bookRepository implements repository.BookRepository.
var _ repository.BookRepository = (*bookRepository)(nil)
