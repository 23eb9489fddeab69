package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
)

// borrowRepository implements repository.BorrowRepository for PostgreSQL.
// Borrow records are a ledger; rows are inserted and updated but never
// deleted.
type borrowRepository struct {
	db *DB
}

// NewBorrowRepository creates a new PostgreSQL borrow-record repository.
func NewBorrowRepository(db *DB) repository.BorrowRepository {
	return &borrowRepository{db: db}
}

const borrowColumns = `id, user_id, book_id, borrow_date, due_date, return_date, status, fine, renewal_count, notes, created_at, updated_at`

func scanBorrow(row pgx.Row) (*domain.BorrowRecord, error) {
	rec := &domain.BorrowRecord{}
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.BookID,
		&rec.BorrowDate,
		&rec.DueDate,
		&rec.ReturnDate,
		&rec.Status,
		&rec.Fine,
		&rec.RenewalCount,
		&rec.Notes,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Create creates a new borrow record.
func (r *borrowRepository) Create(ctx context.Context, rec *domain.BorrowRecord) error {
	query := `
		INSERT INTO borrow_records (id, user_id, book_id, borrow_date, due_date, return_date, status, fine, renewal_count, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		rec.ID,
		rec.UserID,
		rec.BookID,
		rec.BorrowDate,
		rec.DueDate,
		rec.ReturnDate,
		string(rec.Status),
		rec.Fine,
		rec.RenewalCount,
		rec.Notes,
		rec.CreatedAt,
		rec.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create borrow record: %w", err)
	}

	return nil
}

// GetByID retrieves a borrow record by ID.
func (r *borrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BorrowRecord, error) {
	query := `SELECT ` + borrowColumns + ` FROM borrow_records WHERE id = $1`

	rec, err := scanBorrow(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		SET due_date = $1, return_date = $2, status = $3, fine = $4, renewal_count = $5, notes = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := r.db.Pool.Exec(ctx, query,
		rec.DueDate,
		rec.ReturnDate,
		string(rec.Status),
		rec.Fine,
		rec.RenewalCount,
		rec.Notes,
		rec.UpdatedAt,
		rec.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update borrow record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrBorrowNotFound
	}

	return nil
}

// buildBorrowFilter returns the WHERE clause and args for a filter.
func buildBorrowFilter(filter repository.BorrowFilter) (string, []any) {
	var conditions []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != 0 {
		conditions = append(conditions, "user_id = "+arg(filter.UserID))
	}
	if filter.BookID != 0 {
		conditions = append(conditions, "book_id = "+arg(filter.BookID))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(string(filter.Status)))
	}
	if filter.OverdueOnly {
		conditions = append(conditions,
			"status = "+arg(string(domain.BorrowActive)),
			"due_date < "+arg(filter.Now.UTC()))
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
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count borrow records: %w", err)
	}

	orderBy := "borrow_date DESC"
	if filter.OrderByDueDate {
		orderBy = "due_date ASC"
	}

	query := fmt.Sprintf(`SELECT %s FROM borrow_records %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		borrowColumns, where, orderBy, len(args)+1, len(args)+2)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
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

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list borrow records: %w", err)
	}
	defer rows.Close()

	return collectBorrows(rows)
}

// CountActiveByUser returns the user's number of active records.
func (r *borrowRepository) CountActiveByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM borrow_records WHERE user_id = $1 AND status = $2`
	err := r.db.Pool.QueryRow(ctx, query, userID, string(domain.BorrowActive)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active borrows by user: %w", err)
	}
	return count, nil
}

// CountOverdueByUser returns the user's number of overdue records as of now.
func (r *borrowRepository) CountOverdueByUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM borrow_records WHERE user_id = $1 AND status = $2 AND due_date < $3`
	err := r.db.Pool.QueryRow(ctx, query, userID, string(domain.BorrowActive), now.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overdue borrows by user: %w", err)
	}
	return count, nil
}

// CountActiveByBook returns the book's number of active records.
func (r *borrowRepository) CountActiveByBook(ctx context.Context, bookID int64) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM borrow_records WHERE book_id = $1 AND status = $2`
	err := r.db.Pool.QueryRow(ctx, query, bookID, string(domain.BorrowActive)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active borrows by book: %w", err)
	}
	return count, nil
}

// Count returns the total number of records.
func (r *borrowRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM borrow_records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count borrow records: %w", err)
	}
	return count, nil
}

// CountActive returns the number of active records.
func (r *borrowRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM borrow_records WHERE status = $1`
	err := r.db.Pool.QueryRow(ctx, query, string(domain.BorrowActive)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active borrow records: %w", err)
	}
	return count, nil
}

// CountOverdue returns the number of overdue records as of now.
func (r *borrowRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM borrow_records WHERE status = $1 AND due_date < $2`
	err := r.db.Pool.QueryRow(ctx, query, string(domain.BorrowActive), now.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overdue borrow records: %w", err)
	}
	return count, nil
}

// SumFines returns the total fines across the ledger.
func (r *borrowRepository) SumFines(ctx context.Context) (float64, error) {
	var sum float64
	err := r.db.Pool.QueryRow(ctx, `SELECT COALESCE(SUM(fine), 0) FROM borrow_records`).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum fines: %w", err)
	}
	return sum, nil
}

func collectBorrows(rows pgx.Rows) ([]*domain.BorrowRecord, error) {
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

// Ensure borrowRepository implements repository.BorrowRepository.
var _ repository.BorrowRepository = (*borrowRepository)(nil)
