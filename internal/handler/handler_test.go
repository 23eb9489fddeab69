package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/biblio/internal/auth"
	"github.com/prn-tf/biblio/internal/config"
	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
	"github.com/prn-tf/biblio/internal/repository/memory"
	"github.com/prn-tf/biblio/internal/service"
)

// apiFixture wires the full router over in-memory repositories.
type apiFixture struct {
	t       *testing.T
	handler http.Handler
	users   repository.UserRepository
	books   repository.BookRepository
	tokens  *auth.TokenManager
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	logger := zerolog.Nop()
	users := memory.NewUserRepository()
	books := memory.NewBookRepository()
	borrows := memory.NewBorrowRepository()

	tokens := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	policy := config.LibraryConfig{LoanPeriodDays: 14, MaxActiveBorrows: 5, FinePerDay: 1.0}

	userSvc := service.NewUserService(users, tokens, logger)
	bookSvc := service.NewBookService(books, borrows, logger)
	borrowSvc := service.NewBorrowService(borrows, books, users, policy, logger)
	analyticsSvc := service.NewAnalyticsService(borrows, books, users, logger)

	router := NewRouter(RouterConfig{
		UserHandler:      NewUserHandler(userSvc, logger),
		BookHandler:      NewBookHandler(bookSvc, logger),
		BorrowHandler:    NewBorrowHandler(borrowSvc, logger),
		AnalyticsHandler: NewAnalyticsHandler(analyticsSvc, logger),
		AuthMiddleware:   auth.NewMiddleware(tokens, users, logger).Handler,
		Logger:           logger,
	})

	return &apiFixture{t: t, handler: router, users: users, books: books, tokens: tokens}
}

// envelope mirrors the response wrapper with data left raw.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Total   *int64          `json:"total"`
	Page    *int            `json:"page"`
	Pages   *int            `json:"pages"`
	Data    json.RawMessage `json:"data"`
	Summary json.RawMessage `json:"summary"`
	Error   string          `json:"error"`
}

// do issues a request against the router and decodes the envelope.
func (f *apiFixture) do(method, path, token string, body any) (int, envelope) {
	f.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func (f *apiFixture) decode(raw json.RawMessage, dst any) {
	f.t.Helper()
	require.NoError(f.t, json.Unmarshal(raw, dst))
}

// registerMember registers a fresh member account and returns its token.
func (f *apiFixture) registerMember(email string) (int64, string) {
	f.t.Helper()

	status, env := f.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"name":     "Member " + email,
		"email":    email,
		"password": "password1",
	})
	require.Equal(f.t, http.StatusCreated, status)

	var out struct {
		User  *domain.User `json:"user"`
		Token string       `json:"token"`
	}
	f.decode(env.Data, &out)
	return out.User.ID, out.Token
}

// adminToken registers an account, promotes it directly in the store,
// and returns a fresh token for the promoted role.
func (f *apiFixture) adminToken() string {
	f.t.Helper()

	id, _ := f.registerMember(fmt.Sprintf("admin-%d@example.com", time.Now().UnixNano()))
	user, err := f.users.GetByID(context.Background(), id)
	require.NoError(f.t, err)
	user.Role = domain.RoleAdmin
	require.NoError(f.t, f.users.Update(context.Background(), user))

	token, err := f.tokens.Issue(user)
	require.NoError(f.t, err)
	return token
}

// addBook creates a catalog entry as an admin.
func (f *apiFixture) addBook(adminTok, isbn string, copies int) *domain.Book {
	f.t.Helper()

	status, env := f.do(http.MethodPost, "/api/books", adminTok, map[string]any{
		"title":        "Title " + isbn,
		"author":       "Author",
		"isbn":         isbn,
		"genre":        "Fiction",
		"total_copies": copies,
	})
	require.Equal(f.t, http.StatusCreated, status)

	var book domain.Book
	f.decode(env.Data, &book)
	return &book
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var health healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "healthy", health.Status)
	require.Equal(t, Version, health.Version)
	require.False(t, health.Timestamp.IsZero())
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("register issues a usable token", func(t *testing.T) {
		_, token := f.registerMember("ada@example.com")

		status, env := f.do(http.MethodGet, "/api/users/me", token, nil)
		require.Equal(t, http.StatusOK, status)

		var me domain.User
		f.decode(env.Data, &me)
		require.Equal(t, "ada@example.com", me.Email)
		require.Equal(t, domain.RoleMember, me.Role)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		status, env := f.do(http.MethodPost, "/api/users/login", "", map[string]string{
			"email":    "ada@example.com",
			"password": "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, status)
		require.False(t, env.Success)
		require.NotEmpty(t, env.Error)
	})

	t.Run("me without a token", func(t *testing.T) {
		status, env := f.do(http.MethodGet, "/api/users/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.False(t, env.Success)
	})

	t.Run("garbage token is anonymous", func(t *testing.T) {
		status, _ := f.do(http.MethodGet, "/api/users/me", "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		status, _ := f.do(http.MethodPost, "/api/users/register", "", map[string]string{
			"name":     "Ada Again",
			"email":    "ada@example.com",
			"password": "password1",
		})
		require.Equal(t, http.StatusConflict, status)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/users/register", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken()
	memberID, memberTok := f.registerMember("member@example.com")

	t.Run("member cannot list users", func(t *testing.T) {
		status, _ := f.do(http.MethodGet, "/api/users", memberTok, nil)
		require.Equal(t, http.StatusForbidden, status)
	})

	t.Run("admin lists users with pagination envelope", func(t *testing.T) {
		status, env := f.do(http.MethodGet, "/api/users?page=1&limit=10", admin, nil)
		require.Equal(t, http.StatusOK, status)
		require.NotNil(t, env.Total)
		require.Equal(t, int64(2), *env.Total)
		require.Equal(t, 1, *env.Page)
		require.Equal(t, 1, *env.Pages)
	})

	t.Run("member updates own name", func(t *testing.T) {
		status, env := f.do(http.MethodPut, fmt.Sprintf("/api/users/%d", memberID), memberTok, map[string]string{
			"name": "Renamed",
		})
		require.Equal(t, http.StatusOK, status)

		var user domain.User
		f.decode(env.Data, &user)
		require.Equal(t, "Renamed", user.Name)
	})

	t.Run("admin deactivates an account", func(t *testing.T) {
		status, env := f.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", memberID), admin, nil)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "user deactivated", env.Message)

		// The deactivated member's token no longer authenticates.
		status, _ = f.do(http.MethodGet, "/api/users/me", memberTok, nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("invalid id parameter", func(t *testing.T) {
		status, _ := f.do(http.MethodGet, "/api/users/abc", admin, nil)
		require.Equal(t, http.StatusBadRequest, status)
	})
}

func TestBookEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken()
	_, memberTok := f.registerMember("reader@example.com")

	book := f.addBook(admin, "978-0-306-40615-7", 2)

	t.Run("member cannot create books", func(t *testing.T) {
		status, _ := f.do(http.MethodPost, "/api/books", memberTok, map[string]any{
			"title": "X", "author": "Y", "isbn": "1", "genre": "Z", "total_copies": 1,
		})
		require.Equal(t, http.StatusForbidden, status)
	})

	t.Run("anonymous can browse", func(t *testing.T) {
		status, env := f.do(http.MethodGet, fmt.Sprintf("/api/books/%d", book.ID), "", nil)
		require.Equal(t, http.StatusOK, status)

		var got domain.Book
		f.decode(env.Data, &got)
		require.Equal(t, book.ISBN, got.ISBN)
	})

	t.Run("search filter", func(t *testing.T) {
		f.addBook(admin, "978-1-4028-9462-6", 1)

		status, env := f.do(http.MethodGet, "/api/books?search=40615", "", nil)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, 1, *env.Count)
	})

	t.Run("unknown book is 404", func(t *testing.T) {
		status, _ := f.do(http.MethodGet, "/api/books/9999", "", nil)
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("duplicate isbn is 409", func(t *testing.T) {
		status, _ := f.do(http.MethodPost, "/api/books", admin, map[string]any{
			"title": "Dup", "author": "Dup", "isbn": book.ISBN, "genre": "Fiction", "total_copies": 1,
		})
		require.Equal(t, http.StatusConflict, status)
	})

	t.Run("admin updates copies", func(t *testing.T) {
		status, env := f.do(http.MethodPut, fmt.Sprintf("/api/books/%d", book.ID), admin, map[string]any{
			"total_copies": 4,
		})
		require.Equal(t, http.StatusOK, status)

		var got domain.Book
		f.decode(env.Data, &got)
		require.Equal(t, 4, got.TotalCopies)
		require.Equal(t, 4, got.AvailableCopies)
	})
}

func TestBorrowEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken()
	memberID, memberTok := f.registerMember("borrower@example.com")
	book := f.addBook(admin, "978-0-13-468599-1", 1)

	var recordID string

	t.Run("member borrows the last copy", func(t *testing.T) {
		status, env := f.do(http.MethodPost, "/api/borrows", memberTok, map[string]any{
			"book_id": book.ID,
		})
		require.Equal(t, http.StatusCreated, status)

		var rec domain.BorrowRecord
		f.decode(env.Data, &rec)
		require.Equal(t, memberID, rec.UserID)
		require.Equal(t, domain.BorrowActive, rec.Status)
		recordID = rec.ID.String()
	})

	t.Run("second borrow is rejected while out of stock", func(t *testing.T) {
		_, otherTok := f.registerMember("other@example.com")
		status, env := f.do(http.MethodPost, "/api/borrows", otherTok, map[string]any{
			"book_id": book.ID,
		})
		require.Equal(t, http.StatusUnprocessableEntity, status)
		require.False(t, env.Success)
	})

	t.Run("anonymous borrow is 401", func(t *testing.T) {
		status, _ := f.do(http.MethodPost, "/api/borrows", "", map[string]any{"book_id": book.ID})
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("missing book_id is 400", func(t *testing.T) {
		status, _ := f.do(http.MethodPost, "/api/borrows", memberTok, map[string]any{})
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("eligibility reflects the active borrow", func(t *testing.T) {
		status, env := f.do(http.MethodGet, fmt.Sprintf("/api/borrows/eligibility/%d", memberID), memberTok, nil)
		require.Equal(t, http.StatusOK, status)

		var elig service.Eligibility
		f.decode(env.Data, &elig)
		require.True(t, elig.Eligible)
		require.Equal(t, int64(1), elig.ActiveBorrows)
	})

	t.Run("my borrows lists the record", func(t *testing.T) {
		status, env := f.do(http.MethodGet, "/api/borrows/my", memberTok, nil)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, 1, *env.Count)
	})

	t.Run("renew extends the due date", func(t *testing.T) {
		status, env := f.do(http.MethodPost, "/api/borrows/"+recordID+"/renew", memberTok, nil)
		require.Equal(t, http.StatusOK, status)

		var rec domain.BorrowRecord
		f.decode(env.Data, &rec)
		require.Equal(t, 1, rec.RenewalCount)
	})

	t.Run("return closes the record", func(t *testing.T) {
		status, env := f.do(http.MethodPost, "/api/borrows/"+recordID+"/return", memberTok, nil)
		require.Equal(t, http.StatusOK, status)

		var rec domain.BorrowRecord
		f.decode(env.Data, &rec)
		require.Equal(t, domain.BorrowReturned, rec.Status)
		require.NotNil(t, rec.ReturnDate)
	})

	t.Run("double return is 409", func(t *testing.T) {
		status, _ := f.do(http.MethodPost, "/api/borrows/"+recordID+"/return", memberTok, nil)
		require.Equal(t, http.StatusConflict, status)
	})

	t.Run("overdue listing is admin only", func(t *testing.T) {
		status, _ := f.do(http.MethodGet, "/api/borrows/overdue", memberTok, nil)
		require.Equal(t, http.StatusForbidden, status)

		status, _ = f.do(http.MethodGet, "/api/borrows/overdue", admin, nil)
		require.Equal(t, http.StatusOK, status)
	})

	t.Run("admin corrects a record", func(t *testing.T) {
		fine := 2.5
		status, env := f.do(http.MethodPut, "/api/borrows/"+recordID, admin, map[string]any{
			"fine": fine,
		})
		require.Equal(t, http.StatusOK, status)

		var rec domain.BorrowRecord
		f.decode(env.Data, &rec)
		require.Equal(t, fine, rec.Fine)
	})

	t.Run("malformed record id is 400", func(t *testing.T) {
		status, _ := f.do(http.MethodPost, "/api/borrows/not-a-uuid/return", memberTok, nil)
		require.Equal(t, http.StatusBadRequest, status)
	})
}

func TestAnalyticsEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken()
	_, memberTok := f.registerMember("curious@example.com")

	book := f.addBook(admin, "978-0-262-03384-8", 3)
	status, _ := f.do(http.MethodPost, "/api/borrows", memberTok, map[string]any{"book_id": book.ID})
	require.Equal(t, http.StatusCreated, status)

	endpoints := []string{
		"/api/analytics/most-borrowed-books",
		"/api/analytics/most-active-members",
		"/api/analytics/book-availability",
		"/api/analytics/genre-stats",
		"/api/analytics/library-stats",
	}

	t.Run("member is forbidden everywhere", func(t *testing.T) {
		for _, path := range endpoints {
			status, _ := f.do(http.MethodGet, path, memberTok, nil)
			require.Equal(t, http.StatusForbidden, status, path)
		}
	})

	t.Run("most borrowed books", func(t *testing.T) {
		status, env := f.do(http.MethodGet, "/api/analytics/most-borrowed-books?limit=5", admin, nil)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, 1, *env.Count)

		var rows []*service.BookUsage
		f.decode(env.Data, &rows)
		require.Equal(t, book.ID, rows[0].Book.ID)
		require.Equal(t, int64(1), rows[0].BorrowCount)
	})

	t.Run("availability report carries a summary", func(t *testing.T) {
		status, env := f.do(http.MethodGet, "/api/analytics/book-availability", admin, nil)
		require.Equal(t, http.StatusOK, status)
		require.NotNil(t, env.Summary)

		var summary service.AvailabilitySummary
		f.decode(env.Summary, &summary)
		require.Equal(t, 1, summary.TotalBooks)
		require.Equal(t, 3, summary.TotalCopies)
		require.Equal(t, 2, summary.TotalAvailable)
	})

	t.Run("library stats", func(t *testing.T) {
		status, env := f.do(http.MethodGet, "/api/analytics/library-stats", admin, nil)
		require.Equal(t, http.StatusOK, status)

		var stats service.LibraryStats
		f.decode(env.Data, &stats)
		require.Equal(t, int64(1), stats.TotalBorrows)
		require.Equal(t, int64(1), stats.ActiveBorrows)
	})
}
