package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
)

// bookRepository implements repository.BookRepository for SQLite.
type bookRepository struct {
	db *DB
}

// NewBookRepository creates a new SQLite book repository.
func NewBookRepository(db *DB) repository.BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, title, author, isbn, genre, publisher, description, publication_date, total_copies, available_copies, is_active, created_at, updated_at`

// scanBook scans a single book row.
func scanBook(row interface{ Scan(...interface{}) error }) (*domain.Book, error) {
	book := &domain.Book{}
	var isActive int
	var createdAt, updatedAt string

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
		&isActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	book.IsActive = isActive != 0
	book.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	book.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return book, nil
}

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (title, author, isbn, genre, publisher, description, publication_date, total_copies, available_copies, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		book.Title,
		book.Author,
		book.ISBN,
		book.Genre,
		book.Publisher,
		book.Description,
		book.PublicationDate,
		book.TotalCopies,
		book.AvailableCopies,
		boolToInt(book.IsActive),
		book.CreatedAt.Format(time.RFC3339),
		book.UpdatedAt.Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrISBNTaken, book.ISBN)
		}
		return fmt.Errorf("failed to create book: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	book.ID = id

	return nil
}

// GetByID retrieves a book by ID.
func (r *bookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ?`

	book, err := scanBook(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
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
		SET title = ?, author = ?, isbn = ?, genre = ?, publisher = ?, description = ?,
		    publication_date = ?, total_copies = ?, available_copies = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		book.Title,
		book.Author,
		book.ISBN,
		book.Genre,
		book.Publisher,
		book.Description,
		book.PublicationDate,
		book.TotalCopies,
		book.AvailableCopies,
		boolToInt(book.IsActive),
		book.UpdatedAt.Format(time.RFC3339),
		book.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrISBNTaken, book.ISBN)
		}
		return fmt.Errorf("failed to update book: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

// buildBookFilter returns the WHERE clause and args for a filter.
// Active-only is always enforced; listings never expose removed books.
func buildBookFilter(filter repository.BookFilter) (string, []interface{}) {
	conditions := []string{"is_active = 1"}
	var args []interface{}

	if filter.Genre != "" {
		conditions = append(conditions, "genre = ?")
		args = append(args, filter.Genre)
	}
	if filter.Author != "" {
		conditions = append(conditions, "author LIKE ? COLLATE NOCASE")
		args = append(args, "%"+filter.Author+"%")
	}
	if filter.Search != "" {
		conditions = append(conditions, "(title LIKE ? COLLATE NOCASE OR author LIKE ? COLLATE NOCASE OR isbn LIKE ? COLLATE NOCASE)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
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
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count books: %w", err)
	}

	query := `SELECT ` + bookColumns + ` FROM books ` + where + ` ORDER BY title ASC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
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

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active books: %w", err)
	}
	defer rows.Close()

	return collectBooks(rows)
}

// ExistsByISBN checks if a book with the given ISBN exists.
func (r *bookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE isbn = ?`, isbn).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check ISBN existence: %w", err)
	}
	return count > 0, nil
}

// BorrowCopy atomically claims one available copy.
// The guard in the WHERE clause makes concurrent claims on the last
// copy race safely: exactly one UPDATE matches.
func (r *bookRepository) BorrowCopy(ctx context.Context, id int64) error {
	query := `
		UPDATE books
		SET available_copies = available_copies - 1, updated_at = ?
		WHERE id = ? AND available_copies > 0 AND is_active = 1
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to borrow copy: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookUnavailable
	}

	return nil
}

// ReturnCopy atomically releases one copy back to the shelf.
func (r *bookRepository) ReturnCopy(ctx context.Context, id int64) error {
	query := `
		UPDATE books
		SET available_copies = available_copies + 1, updated_at = ?
		WHERE id = ? AND available_copies < total_copies
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to return copy: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}

// CountActive returns the number of active books.
func (r *bookRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE is_active = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active books: %w", err)
	}
	return count, nil
}

// collectBooks drains a result set of book rows.
func collectBooks(rows *sql.Rows) ([]*domain.Book, error) {
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
