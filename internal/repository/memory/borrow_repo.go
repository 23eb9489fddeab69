package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
)

type borrowRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*domain.BorrowRecord
}

// NewBorrowRepository creates an empty in-memory borrow repository.
func NewBorrowRepository() repository.BorrowRepository {
	return &borrowRepository{records: make(map[uuid.UUID]*domain.BorrowRecord)}
}

func copyRecord(rec *domain.BorrowRecord) *domain.BorrowRecord {
	cp := *rec
	if rec.ReturnDate != nil {
		ret := *rec.ReturnDate
		cp.ReturnDate = &ret
	}
	return &cp
}

func (r *borrowRepository) Create(ctx context.Context, rec *domain.BorrowRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[rec.ID] = copyRecord(rec)
	return nil
}

func (r *borrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BorrowRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrBorrowNotFound
	}
	return copyRecord(rec), nil
}

func (r *borrowRepository) Update(ctx context.Context, rec *domain.BorrowRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; !ok {
		return domain.ErrBorrowNotFound
	}
	r.records[rec.ID] = copyRecord(rec)
	return nil
}

func matchesBorrowFilter(rec *domain.BorrowRecord, filter repository.BorrowFilter) bool {
	if filter.UserID != 0 && rec.UserID != filter.UserID {
		return false
	}
	if filter.BookID != 0 && rec.BookID != filter.BookID {
		return false
	}
	if filter.Status != "" && rec.Status != filter.Status {
		return false
	}
	if filter.OverdueOnly && !rec.IsOverdue(filter.Now) {
		return false
	}
	return true
}

func (r *borrowRepository) List(ctx context.Context, filter repository.BorrowFilter, opts repository.ListOptions) (*repository.ListResult[domain.BorrowRecord], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.BorrowRecord
	for _, rec := range r.records {
		if matchesBorrowFilter(rec, filter) {
			matched = append(matched, copyRecord(rec))
		}
	}

	if filter.OrderByDueDate {
		sort.Slice(matched, func(i, j int) bool { return matched[i].DueDate.Before(matched[j].DueDate) })
	} else {
		sort.Slice(matched, func(i, j int) bool { return matched[i].BorrowDate.After(matched[j].BorrowDate) })
	}

	total := int64(len(matched))
	matched = paginate(matched, opts)

	return &repository.ListResult[domain.BorrowRecord]{
		Items:  matched,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

func (r *borrowRepository) ListAll(ctx context.Context) ([]*domain.BorrowRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.BorrowRecord, 0, len(r.records))
	for _, rec := range r.records {
		all = append(all, copyRecord(rec))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].BorrowDate.After(all[j].BorrowDate) })
	return all, nil
}

func (r *borrowRepository) CountActiveByUser(ctx context.Context, userID int64) (int64, error) {
	return r.count(func(rec *domain.BorrowRecord) bool {
		return rec.UserID == userID && rec.IsActive()
	}), nil
}

func (r *borrowRepository) CountOverdueByUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	return r.count(func(rec *domain.BorrowRecord) bool {
		return rec.UserID == userID && rec.IsOverdue(now)
	}), nil
}

func (r *borrowRepository) CountActiveByBook(ctx context.Context, bookID int64) (int64, error) {
	return r.count(func(rec *domain.BorrowRecord) bool {
		return rec.BookID == bookID && rec.IsActive()
	}), nil
}

func (r *borrowRepository) Count(ctx context.Context) (int64, error) {
	return r.count(func(*domain.BorrowRecord) bool { return true }), nil
}

func (r *borrowRepository) CountActive(ctx context.Context) (int64, error) {
	return r.count(func(rec *domain.BorrowRecord) bool { return rec.IsActive() }), nil
}

func (r *borrowRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	return r.count(func(rec *domain.BorrowRecord) bool { return rec.IsOverdue(now) }), nil
}

func (r *borrowRepository) SumFines(ctx context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum float64
	for _, rec := range r.records {
		sum += rec.Fine
	}
	return sum, nil
}

func (r *borrowRepository) count(keep func(*domain.BorrowRecord) bool) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, rec := range r.records {
		if keep(rec) {
			n++
		}
	}
	return n
}

var _ repository.BorrowRepository = (*borrowRepository)(nil)
