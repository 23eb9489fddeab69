package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/biblio/internal/domain"
)

// Caching decorators for point reads. Only GetByID goes through the
// cache; listings and counts always hit the store because reports must
// reflect current collection contents. Cache failures degrade to the
// underlying repository, never to a request failure.

// DefaultCacheTTL bounds staleness of cached entities.
const DefaultCacheTTL = 5 * time.Minute

// CachedUserRepository wraps a UserRepository with a read cache.
type CachedUserRepository struct {
	UserRepository
	cache  Cache
	logger zerolog.Logger
}

// NewCachedUserRepository creates a caching decorator around base.
func NewCachedUserRepository(base UserRepository, cache Cache, logger zerolog.Logger) *CachedUserRepository {
	return &CachedUserRepository{
		UserRepository: base,
		cache:          cache,
		logger:         logger.With().Str("repository", "cached_user").Logger(),
	}
}

// cachedUser is the cache wire form of a user. The password hash is
// excluded from the entity's own JSON, but a cached read must round-trip
// it or a later Update through this repository would erase the stored
// credential.
type cachedUser struct {
	User         domain.User `json:"user"`
	PasswordHash string      `json:"password_hash"`
}

// GetByID retrieves a user, preferring the cache.
func (r *CachedUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	key := CacheKey{}.User(id)

	if data, err := r.cache.Get(ctx, key); err == nil {
		var entry cachedUser
		if err := json.Unmarshal(data, &entry); err == nil {
			user := entry.User
			user.PasswordHash = entry.PasswordHash
			return &user, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		_ = r.cache.Delete(ctx, key)
	}

	user, err := r.UserRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cachedUser{User: *user, PasswordHash: user.PasswordHash}); err == nil {
		if err := r.cache.Set(ctx, key, data, DefaultCacheTTL); err != nil {
			r.logger.Debug().Err(err).Int64("user_id", id).Msg("failed to cache user")
		}
	}

	return user, nil
}

// Update updates the user and invalidates the cached entry.
func (r *CachedUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := r.UserRepository.Update(ctx, user); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, CacheKey{}.User(user.ID)); err != nil {
		r.logger.Debug().Err(err).Int64("user_id", user.ID).Msg("failed to invalidate cached user")
	}
	return nil
}

// CachedBookRepository wraps a BookRepository with a read cache.
type CachedBookRepository struct {
	BookRepository
	cache  Cache
	logger zerolog.Logger
}

// NewCachedBookRepository creates a caching decorator around base.
func NewCachedBookRepository(base BookRepository, cache Cache, logger zerolog.Logger) *CachedBookRepository {
	return &CachedBookRepository{
		BookRepository: base,
		cache:          cache,
		logger:         logger.With().Str("repository", "cached_book").Logger(),
	}
}

// GetByID retrieves a book, preferring the cache.
func (r *CachedBookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	key := CacheKey{}.Book(id)

	if data, err := r.cache.Get(ctx, key); err == nil {
		var book domain.Book
		if err := json.Unmarshal(data, &book); err == nil {
			return &book, nil
		}
		_ = r.cache.Delete(ctx, key)
	}

	book, err := r.BookRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(book); err == nil {
		if err := r.cache.Set(ctx, key, data, DefaultCacheTTL); err != nil {
			r.logger.Debug().Err(err).Int64("book_id", id).Msg("failed to cache book")
		}
	}

	return book, nil
}

// Update updates the book and invalidates the cached entry.
func (r *CachedBookRepository) Update(ctx context.Context, book *domain.Book) error {
	if err := r.BookRepository.Update(ctx, book); err != nil {
		return err
	}
	r.invalidate(ctx, book.ID)
	return nil
}

// BorrowCopy decrements availability and invalidates the cached entry.
func (r *CachedBookRepository) BorrowCopy(ctx context.Context, id int64) error {
	if err := r.BookRepository.BorrowCopy(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// ReturnCopy increments availability and invalidates the cached entry.
func (r *CachedBookRepository) ReturnCopy(ctx context.Context, id int64) error {
	if err := r.BookRepository.ReturnCopy(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedBookRepository) invalidate(ctx context.Context, id int64) {
	if err := r.cache.Delete(ctx, CacheKey{}.Book(id)); err != nil {
		r.logger.Debug().Err(err).Int64("book_id", id).Msg("failed to invalidate cached book")
	}
}
