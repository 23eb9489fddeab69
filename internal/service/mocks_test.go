package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
)

// In-memory fakes for the repository interfaces. Error-injection
// fields let tests simulate store failures.

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mu        sync.Mutex
	users     map[int64]*domain.User
	nextID    int64
	createErr error
	getErr    error
	updateErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]*domain.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.ErrEmailTaken
		}
	}
	user.ID = m.nextID
	m.nextID++
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.User], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted()
	total := int64(len(all))
	start := opts.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + opts.Limit
	if end > len(all) {
		end = len(all)
	}
	return &repository.ListResult[domain.User]{
		Items:  all[start:end],
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

func (m *MockUserRepository) ListActive(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.User
	for _, u := range m.sorted() {
		if u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) CountActive(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *MockUserRepository) sorted() []*domain.User {
	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MockBookRepository is a mock implementation of repository.BookRepository.
type MockBookRepository struct {
	mu        sync.Mutex
	books     map[int64]*domain.Book
	nextID    int64
	createErr error
	getErr    error
	updateErr error
	borrowErr error
}

func NewMockBookRepository() *MockBookRepository {
	return &MockBookRepository{
		books:  make(map[int64]*domain.Book),
		nextID: 1,
	}
}

func (m *MockBookRepository) Create(ctx context.Context, book *domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, b := range m.books {
		if b.ISBN == book.ISBN {
			return domain.ErrISBNTaken
		}
	}
	book.ID = m.nextID
	m.nextID++
	cp := *book
	m.books[book.ID] = &cp
	return nil
}

func (m *MockBookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if b, ok := m.books[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, domain.ErrBookNotFound
}

func (m *MockBookRepository) Update(ctx context.Context, book *domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.books[book.ID]; !ok {
		return domain.ErrBookNotFound
	}
	cp := *book
	m.books[book.ID] = &cp
	return nil
}

func (m *MockBookRepository) List(ctx context.Context, filter repository.BookFilter, opts repository.ListOptions) (*repository.ListResult[domain.Book], error) {
	all, err := m.ListActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	total := int64(len(all))
	start := opts.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + opts.Limit
	if end > len(all) {
		end = len(all)
	}
	return &repository.ListResult[domain.Book]{
		Items:  all[start:end],
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

func (m *MockBookRepository) ListActive(ctx context.Context, filter repository.BookFilter) ([]*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Book
	for _, b := range m.books {
		if !b.IsActive {
			continue
		}
		if filter.Genre != "" && b.Genre != filter.Genre {
			continue
		}
		if filter.AvailableOnly && b.AvailableCopies == 0 {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockBookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.ISBN == isbn {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockBookRepository) BorrowCopy(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.borrowErr != nil {
		return m.borrowErr
	}
	b, ok := m.books[id]
	if !ok || !b.IsActive || b.AvailableCopies <= 0 {
		return domain.ErrBookUnavailable
	}
	b.AvailableCopies--
	return nil
}

func (m *MockBookRepository) ReturnCopy(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok || b.AvailableCopies >= b.TotalCopies {
		return domain.ErrBookNotFound
	}
	b.AvailableCopies++
	return nil
}

func (m *MockBookRepository) CountActive(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.books {
		if b.IsActive {
			n++
		}
	}
	return n, nil
}

// MockBorrowRepository is a mock implementation of repository.BorrowRepository.
type MockBorrowRepository struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*domain.BorrowRecord
	createErr error
	getErr    error
	updateErr error
}

func NewMockBorrowRepository() *MockBorrowRepository {
	return &MockBorrowRepository{
		records: make(map[uuid.UUID]*domain.BorrowRecord),
	}
}

func (m *MockBorrowRepository) Create(ctx context.Context, rec *domain.BorrowRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *MockBorrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BorrowRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if r, ok := m.records[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrBorrowNotFound
}

func (m *MockBorrowRepository) Update(ctx context.Context, rec *domain.BorrowRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.records[rec.ID]; !ok {
		return domain.ErrBorrowNotFound
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *MockBorrowRepository) List(ctx context.Context, filter repository.BorrowFilter, opts repository.ListOptions) (*repository.ListResult[domain.BorrowRecord], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*domain.BorrowRecord
	for _, r := range m.records {
		if filter.UserID != 0 && r.UserID != filter.UserID {
			continue
		}
		if filter.BookID != 0 && r.BookID != filter.BookID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.OverdueOnly && !r.IsOverdue(filter.Now) {
			continue
		}
		cp := *r
		all = append(all, &cp)
	}
	if filter.OrderByDueDate {
		sort.Slice(all, func(i, j int) bool { return all[i].DueDate.Before(all[j].DueDate) })
	} else {
		sort.Slice(all, func(i, j int) bool { return all[i].BorrowDate.After(all[j].BorrowDate) })
	}
	total := int64(len(all))
	start := opts.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + opts.Limit
	if end > len(all) {
		end = len(all)
	}
	return &repository.ListResult[domain.BorrowRecord]{
		Items:  all[start:end],
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

func (m *MockBorrowRepository) ListAll(ctx context.Context) ([]*domain.BorrowRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.BorrowRecord, 0, len(m.records))
	for _, r := range m.records {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BorrowDate.After(out[j].BorrowDate) })
	return out, nil
}

func (m *MockBorrowRepository) CountActiveByUser(ctx context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.UserID == userID && r.IsActive() {
			n++
		}
	}
	return n, nil
}

func (m *MockBorrowRepository) CountOverdueByUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.UserID == userID && r.IsOverdue(now) {
			n++
		}
	}
	return n, nil
}

func (m *MockBorrowRepository) CountActiveByBook(ctx context.Context, bookID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.BookID == bookID && r.IsActive() {
			n++
		}
	}
	return n, nil
}

func (m *MockBorrowRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

func (m *MockBorrowRepository) CountActive(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.IsActive() {
			n++
		}
	}
	return n, nil
}

func (m *MockBorrowRepository) CountOverdue(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.IsOverdue(now) {
			n++
		}
	}
	return n, nil
}

func (m *MockBorrowRepository) SumFines(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum float64
	for _, r := range m.records {
		sum += r.Fine
	}
	return sum, nil
}

// Interface conformance checks.
var (
	_ repository.UserRepository   = (*MockUserRepository)(nil)
	_ repository.BookRepository   = (*MockBookRepository)(nil)
	_ repository.BorrowRepository = (*MockBorrowRepository)(nil)
)
