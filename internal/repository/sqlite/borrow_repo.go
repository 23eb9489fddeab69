package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
)

// borrowRepository implements repository.BorrowRepository for SQLite.
// Borrow records are a ledger; rows are inserted and updated but never
// deleted.
type borrowRepository struct {
	db *DB
}

// NewBorrowRepository creates a new SQLite borrow-record repository.
func NewBorrowRepository(db *DB) repository.BorrowRepository {
	return &borrowRepository{db: db}
}

const borrowColumns = `id, user_id, book_id, borrow_date, due_date, return_date, status, fine, renewal_count, notes, created_at, updated_at`

// scanBorrow scans a single borrow-record row.
func scanBorrow(row interface{ Scan(...interface{}) error }) (*domain.BorrowRecord, error) {
	rec := &domain.BorrowRecord{}
	var id string
	var returnDate sql.NullString
	var borrowDate, dueDate, createdAt, updatedAt string

	err := row.Scan(
		&id,
		&rec.UserID,
		&rec.BookID,
		&borrowDate,
		&dueDate,
		&returnDate,
		&rec.Status,
		&rec.Fine,
		&rec.RenewalCount,
		&rec.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid borrow record ID %q: %w", id, err)
	}

	rec.BorrowDate, _ = time.Parse(time.RFC3339, borrowDate)
	rec.DueDate, _ = time.Parse(time.RFC3339, dueDate)
	if returnDate.Valid {
		t, err := time.Parse(time.RFC3339, returnDate.String)
		if err == nil {
			rec.ReturnDate = &t
		}
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return rec, nil
}

// Create creates a new borrow record.
func (r *borrowRepository) Create(ctx context.Context, rec *domain.BorrowRecord) error {
	query := `
		INSERT INTO borrow_records (id, user_id, book_id, borrow_date, due_date, return_date, status, fine, renewal_count, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID.String(),
		rec.UserID,
		rec.BookID,
		rec.BorrowDate.Format(time.RFC3339),
		rec.DueDate.Format(time.RFC3339),
		nullableTime(rec.ReturnDate),
		string(rec.Status),
		rec.Fine,
		rec.RenewalCount,
		rec.Notes,
		rec.CreatedAt.Format(time.RFC3339),
		rec.UpdatedAt.Format(time.RFC3339),
	)

	if err != nil {
		return fmt.Errorf("failed to create borrow record: %w", err)
	}

	return nil
}

// GetByID retrieves a borrow record by ID.
func (r *borrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BorrowRecord, error) {
	query := `SELECT ` + borrowColumns + ` FROM borrow_records WHERE id = ?`

	rec, err := scanBorrow(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBorrowNotFound
		}
		return nil, fmt.Errorf("failed to get borrow record by ID: %w", err)
	}

	return rec, nil
}

// Update updates an existing borrow record.
func (r *borrowRepository) Update(ctx context.Context, rec *domain.BorrowRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE borrow_records
		SET due_date = ?, return_date = ?, status = ?, fine = ?, renewal_count = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		rec.DueDate.Format(time.RFC3339),
		nullableTime(rec.ReturnDate),
		string(rec.Status),
		rec.Fine,
		rec.RenewalCount,
		rec.Notes,
		rec.UpdatedAt.Format(time.RFC3339),
		rec.ID.String(),
	)

	if err != nil {
		return fmt.Errorf("failed to update borrow record: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBorrowNotFound
	}

	return nil
}

// buildBorrowFilter returns the WHERE clause and args for a filter.
func buildBorrowFilter(filter repository.BorrowFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.UserID != 0 {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.BookID != 0 {
		conditions = append(conditions, "book_id = ?")
		args = append(args, filter.BookID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.OverdueOnly {
		conditions = append(conditions, "status = ? AND due_date < ?")
		args = append(args, string(domain.BorrowActive), filter.Now.UTC().Format(time.RFC3339))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns borrow records matching the filter, with pagination.
func (r *borrowRepository) List(ctx context.Context, filter repository.BorrowFilter, opts repository.ListOptions) (*repository.ListResult[domain.BorrowRecord], error) {
	where, args := buildBorrowFilter(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM borrow_records ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count borrow records: %w", err)
	}

	orderBy := "borrow_date DESC"
	if filter.OrderByDueDate {
		orderBy = "due_date ASC"
	}

	query := `SELECT ` + borrowColumns + ` FROM borrow_records ` + where + ` ORDER BY ` + orderBy + ` LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list borrow records: %w", err)
	}
	defer rows.Close()

	recs, err := collectBorrows(rows)
	if err != nil {
		return nil, err
	}

	return &repository.ListResult[domain.BorrowRecord]{
		Items:  recs,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

// ListAll returns the full ledger.
func (r *borrowRepository) ListAll(ctx context.Context) ([]*domain.BorrowRecord, error) {
	query := `SELECT ` + borrowColumns + ` FROM borrow_records ORDER BY borrow_date DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list borrow records: %w", err)
	}
	defer rows.Close()

	return collectBorrows(rows)
}

// CountActiveByUser returns the user's number of active records.
func (r *borrowRepository) CountActiveByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM borrow_records WHERE user_id = ? AND status = ?`
	err := r.db.QueryRowContext(ctx, query, userID, string(domain.BorrowActive)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active borrows by user: %w", err)
	}
	return count, nil
}

// CountOverdueByUser returns the user's number of overdue records as of now.
func (r *borrowRepository) CountOverdueByUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM borrow_records WHERE user_id = ? AND status = ? AND due_date < ?`
	err := r.db.QueryRowContext(ctx, query, userID, string(domain.BorrowActive), now.UTC().Format(time.RFC3339)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overdue borrows by user: %w", err)
	}
	return count, nil
}

// CountActiveByBook returns the book's number of active records.
func (r *borrowRepository) CountActiveByBook(ctx context.Context, bookID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM borrow_records WHERE book_id = ? AND status = ?`
	err := r.db.QueryRowContext(ctx, query, bookID, string(domain.BorrowActive)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active borrows by book: %w", err)
	}
	return count, nil
}

// Count returns the total number of records.
func (r *borrowRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM borrow_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count borrow records: %w", err)
	}
	return count, nil
}

// CountActive returns the number of active records.
func (r *borrowRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM borrow_records WHERE status = ?`
	err := r.db.QueryRowContext(ctx, query, string(domain.BorrowActive)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active borrow records: %w", err)
	}
	return count, nil
}

// CountOverdue returns the number of overdue records as of now.
func (r *borrowRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM borrow_records WHERE status = ? AND due_date < ?`
	err := r.db.QueryRowContext(ctx, query, string(domain.BorrowActive), now.UTC().Format(time.RFC3339)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overdue borrow records: %w", err)
	}
	return count, nil
}

// SumFines returns the total fines across the ledger.
func (r *borrowRepository) SumFines(ctx context.Context) (float64, error) {
	var sum float64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(fine), 0) FROM borrow_records`).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum fines: %w", err)
	}
	return sum, nil
}

// collectBorrows drains a result set of borrow-record rows.
func collectBorrows(rows *sql.Rows) ([]*domain.BorrowRecord, error) {
	var recs []*domain.BorrowRecord
	for rows.Next() {
		rec, err := scanBorrow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan borrow record: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating borrow records: %w", err)
	}

	return recs, nil
}

// nullableTime formats an optional timestamp for storage.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

// Ensure borrowRepository implements repository.BorrowRepository.
var _ repository.BorrowRepository = (*borrowRepository)(nil)
