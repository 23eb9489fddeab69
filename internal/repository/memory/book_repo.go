package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
)

type bookRepository struct {
	mu     sync.RWMutex
	books  map[int64]*domain.Book
	nextID int64
}

// NewBookRepository creates an empty in-memory book repository.
func NewBookRepository() repository.BookRepository {
	return &bookRepository{books: make(map[int64]*domain.Book), nextID: 1}
}

func copyBook(b *domain.Book) *domain.Book {
	cp := *b
	return &cp
}

func (r *bookRepository) Create(ctx context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.books {
		if existing.ISBN == book.ISBN {
			return domain.ErrISBNTaken
		}
	}

	book.ID = r.nextID
	r.nextID++
	r.books[book.ID] = copyBook(book)
	return nil
}

func (r *bookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	return copyBook(book), nil
}

func (r *bookRepository) Update(ctx context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[book.ID]; !ok {
		return domain.ErrBookNotFound
	}
	r.books[book.ID] = copyBook(book)
	return nil
}

func matchesFilter(book *domain.Book, filter repository.BookFilter) bool {
	if !book.IsActive {
		return false
	}
	if filter.Genre != "" && book.Genre != filter.Genre {
		return false
	}
	if filter.Author != "" && !strings.Contains(strings.ToLower(book.Author), strings.ToLower(filter.Author)) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(book.Title), needle) &&
			!strings.Contains(strings.ToLower(book.Author), needle) &&
			!strings.Contains(strings.ToLower(book.ISBN), needle) {
			return false
		}
	}
	if filter.AvailableOnly && book.AvailableCopies < 1 {
		return false
	}
	return true
}

func (r *bookRepository) filtered(filter repository.BookFilter) []*domain.Book {
	var matched []*domain.Book
	for _, book := range r.books {
		if matchesFilter(book, filter) {
			matched = append(matched, copyBook(book))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Title != matched[j].Title {
			return matched[i].Title < matched[j].Title
		}
		return matched[i].ID < matched[j].ID
	})
	return matched
}

func (r *bookRepository) List(ctx context.Context, filter repository.BookFilter, opts repository.ListOptions) (*repository.ListResult[domain.Book], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.filtered(filter)
	total := int64(len(matched))
	matched = paginate(matched, opts)

	return &repository.ListResult[domain.Book]{
		Items:  matched,
		Total:  total,
		Offset: opts.Offset,
		Limit:  opts.Limit,
	}, nil
}

func (r *bookRepository) ListActive(ctx context.Context, filter repository.BookFilter) ([]*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filtered(filter), nil
}

func (r *bookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, book := range r.books {
		if book.ISBN == isbn {
			return true, nil
		}
	}
	return false, nil
}

func (r *bookRepository) BorrowCopy(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[id]
	if !ok || !book.IsActive || book.AvailableCopies < 1 {
		return domain.ErrBookUnavailable
	}
	book.AvailableCopies--
	return nil
}

func (r *bookRepository) ReturnCopy(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[id]
	if !ok || book.AvailableCopies >= book.TotalCopies {
		return domain.ErrBookNotFound
	}
	book.AvailableCopies++
	return nil
}

func (r *bookRepository) CountActive(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, book := range r.books {
		if book.IsActive {
			n++
		}
	}
	return n, nil
}

var _ repository.BookRepository = (*bookRepository)(nil)
