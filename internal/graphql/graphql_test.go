package graphql

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/biblio/internal/auth"
	"github.com/prn-tf/biblio/internal/config"
	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/repository"
	"github.com/prn-tf/biblio/internal/repository/memory"
	"github.com/prn-tf/biblio/internal/service"
)

type schemaFixture struct {
	t      *testing.T
	schema graphql.Schema
	users  repository.UserRepository
	books  repository.BookRepository
}

func newSchemaFixture(t *testing.T) *schemaFixture {
	t.Helper()

	logger := zerolog.Nop()
	users := memory.NewUserRepository()
	books := memory.NewBookRepository()
	borrows := memory.NewBorrowRepository()

	tokens := auth.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	policy := config.LibraryConfig{LoanPeriodDays: 14, MaxActiveBorrows: 5, FinePerDay: 1.0}

	schema, err := NewSchema(Services{
		Users:     service.NewUserService(users, tokens, logger),
		Books:     service.NewBookService(books, borrows, logger),
		Borrows:   service.NewBorrowService(borrows, books, users, policy, logger),
		Analytics: service.NewAnalyticsService(borrows, books, users, logger),
	}, logger)
	require.NoError(t, err)

	return &schemaFixture{t: t, schema: schema, users: users, books: books}
}

// exec runs a query with the given caller attached to the context.
func (f *schemaFixture) exec(caller *auth.Caller, query string, vars map[string]any) *graphql.Result {
	f.t.Helper()

	ctx := context.Background()
	if caller != nil {
		ctx = auth.WithCaller(ctx, caller)
	}

	return graphql.Do(graphql.Params{
		Schema:         f.schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        ctx,
	})
}

func (f *schemaFixture) admin() *auth.Caller {
	f.t.Helper()

	user := domain.NewUser("Admin", fmt.Sprintf("admin-%d@example.com", time.Now().UnixNano()), "x", domain.RoleAdmin)
	require.NoError(f.t, f.users.Create(context.Background(), user))
	return &auth.Caller{UserID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
}

func (f *schemaFixture) member() *auth.Caller {
	f.t.Helper()

	user := domain.NewUser("Member", fmt.Sprintf("member-%d@example.com", time.Now().UnixNano()), "x", domain.RoleMember)
	require.NoError(f.t, f.users.Create(context.Background(), user))
	return &auth.Caller{UserID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role}
}

func (f *schemaFixture) addBook(isbn string, copies int) *domain.Book {
	f.t.Helper()

	book := domain.NewBook("Title "+isbn, "Author", isbn, "Fiction", copies)
	require.NoError(f.t, f.books.Create(context.Background(), book))
	return book
}

// data unwraps the result payload, failing the test on resolver errors.
func (f *schemaFixture) data(result *graphql.Result) map[string]any {
	f.t.Helper()
	require.Empty(f.t, result.Errors)
	return result.Data.(map[string]any)
}

func TestRegisterMutation(t *testing.T) {
	f := newSchemaFixture(t)

	result := f.exec(nil, `
		mutation {
			register(name: "Ada", email: "ada@example.com", password: "password1") {
				user { id name role }
				token
			}
		}`, nil)

	payload := f.data(result)["register"].(map[string]any)
	require.NotEmpty(t, payload["token"])

	user := payload["user"].(map[string]any)
	require.Equal(t, "Ada", user["name"])
	require.Equal(t, string(domain.RoleMember), user["role"])
}

func TestMeQuery(t *testing.T) {
	f := newSchemaFixture(t)
	member := f.member()

	t.Run("with caller", func(t *testing.T) {
		result := f.exec(member, `{ me { id email } }`, nil)
		me := f.data(result)["me"].(map[string]any)
		require.Equal(t, member.Email, me["email"])
	})

	t.Run("anonymous gets an error", func(t *testing.T) {
		result := f.exec(nil, `{ me { id } }`, nil)
		require.NotEmpty(t, result.Errors)
	})
}

func TestBookQueriesAndMutations(t *testing.T) {
	f := newSchemaFixture(t)
	admin := f.admin()
	member := f.member()

	t.Run("createBook as admin", func(t *testing.T) {
		result := f.exec(admin, `
			mutation {
				createBook(title: "Dune", author: "Frank Herbert", isbn: "978-0441013593", genre: "SciFi", total_copies: 2) {
					id available_copies
				}
			}`, nil)

		book := f.data(result)["createBook"].(map[string]any)
		require.Equal(t, 2, book["available_copies"])
	})

	t.Run("createBook as member is rejected", func(t *testing.T) {
		result := f.exec(member, `
			mutation {
				createBook(title: "X", author: "Y", isbn: "1", genre: "Z", total_copies: 1) { id }
			}`, nil)
		require.NotEmpty(t, result.Errors)
	})

	t.Run("searchBooks is public", func(t *testing.T) {
		result := f.exec(nil, `{ searchBooks(query: "Dune") { title isbn } }`, nil)
		books := f.data(result)["searchBooks"].([]any)
		require.Len(t, books, 1)
	})

	t.Run("variables are honored", func(t *testing.T) {
		result := f.exec(nil, `
			query Search($q: String!) {
				searchBooks(query: $q) { title }
			}`, map[string]any{"q": "nothing-matches"})
		books := f.data(result)["searchBooks"].([]any)
		require.Empty(t, books)
	})
}

func TestBorrowLifecycleViaGraphQL(t *testing.T) {
	f := newSchemaFixture(t)
	member := f.member()
	book := f.addBook("978-0134190440", 1)

	result := f.exec(member, fmt.Sprintf(`
		mutation { borrowBook(book_id: %d) { id status } }`, book.ID), nil)
	rec := f.data(result)["borrowBook"].(map[string]any)
	require.Equal(t, string(domain.BorrowActive), rec["status"])
	recordID := rec["id"].(string)

	t.Run("myBorrows sees the record", func(t *testing.T) {
		result := f.exec(member, `{ myBorrows { id book_id } }`, nil)
		records := f.data(result)["myBorrows"].([]any)
		require.Len(t, records, 1)
	})

	t.Run("second copy is unavailable", func(t *testing.T) {
		other := f.member()
		result := f.exec(other, fmt.Sprintf(`
			mutation { borrowBook(book_id: %d) { id } }`, book.ID), nil)
		require.NotEmpty(t, result.Errors)
	})

	t.Run("return closes the record", func(t *testing.T) {
		result := f.exec(member, fmt.Sprintf(`
			mutation { returnBook(id: %q) { status fine } }`, recordID), nil)
		rec := f.data(result)["returnBook"].(map[string]any)
		require.Equal(t, string(domain.BorrowReturned), rec["status"])
		require.Equal(t, 0.0, rec["fine"])
	})
}

func TestAnalyticsAccessViaGraphQL(t *testing.T) {
	f := newSchemaFixture(t)
	admin := f.admin()
	member := f.member()

	t.Run("libraryStats requires admin", func(t *testing.T) {
		result := f.exec(member, `{ libraryStats { total_books } }`, nil)
		require.NotEmpty(t, result.Errors)

		result = f.exec(admin, `{ libraryStats { total_books total_users } }`, nil)
		stats := f.data(result)["libraryStats"].(map[string]any)
		require.Equal(t, 0, stats["total_books"])
	})

	t.Run("genreStats requires admin", func(t *testing.T) {
		result := f.exec(member, `{ genreStats { genre } }`, nil)
		require.NotEmpty(t, result.Errors)
	})
}
