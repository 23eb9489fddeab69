package graphql

import (
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"

	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/service"
)

// resolver holds the services all fields delegate to.
type resolver struct {
	users     *service.UserService
	books     *service.BookService
	borrows   *service.BorrowService
	analytics *service.AnalyticsService
	logger    zerolog.Logger
}

// Services bundles the dependencies of the GraphQL endpoint.
type Services struct {
	Users     *service.UserService
	Books     *service.BookService
	Borrows   *service.BorrowService
	Analytics *service.AnalyticsService
}

// NewSchema builds the executable schema over the given services.
func NewSchema(svcs Services, logger zerolog.Logger) (graphql.Schema, error) {
	r := &resolver{
		users:     svcs.Users,
		books:     svcs.Books,
		borrows:   svcs.Borrows,
		analytics: svcs.Analytics,
		logger:    logger.With().Str("component", "graphql").Logger(),
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    r.queryType(),
		Mutation: r.mutationType(),
	})
}

// Argument helpers. graphql-go hands arguments over as interface{}
// values already coerced to int/float64/string/bool.

func argString(p graphql.ResolveParams, name string) string {
	v, _ := p.Args[name].(string)
	return v
}

func argInt(p graphql.ResolveParams, name string) int {
	v, _ := p.Args[name].(int)
	return v
}

func argBool(p graphql.ResolveParams, name string) bool {
	v, _ := p.Args[name].(bool)
	return v
}

func argID(p graphql.ResolveParams, name string) int64 {
	return int64(argInt(p, name))
}

func argUUID(p graphql.ResolveParams, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(argString(p, name))
	if err != nil {
		return uuid.Nil, domain.Validationf("invalid %s argument", name)
	}
	return id, nil
}

func optString(p graphql.ResolveParams, name string) *string {
	if v, ok := p.Args[name].(string); ok {
		return &v
	}
	return nil
}

func optInt(p graphql.ResolveParams, name string) *int {
	if v, ok := p.Args[name].(int); ok {
		return &v
	}
	return nil
}

func optFloat(p graphql.ResolveParams, name string) *float64 {
	if v, ok := p.Args[name].(float64); ok {
		return &v
	}
	return nil
}

func optBool(p graphql.ResolveParams, name string) *bool {
	if v, ok := p.Args[name].(bool); ok {
		return &v
	}
	return nil
}

func borrowStatusArg(p graphql.ResolveParams) domain.BorrowStatus {
	return domain.BorrowStatus(argString(p, "status"))
}

// pageArgs derives limit/offset from the page and limit arguments,
// mirroring the REST pagination defaults.
func pageArgs(p graphql.ResolveParams) (limit, offset int) {
	page := argInt(p, "page")
	if page < 1 {
		page = 1
	}
	limit = argInt(p, "limit")
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return limit, (page - 1) * limit
}

var paginationArgs = graphql.FieldConfigArgument{
	"page":  &graphql.ArgumentConfig{Type: graphql.Int},
	"limit": &graphql.ArgumentConfig{Type: graphql.Int},
}

// withPagination merges the shared pagination arguments into args.
func withPagination(args graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	merged := graphql.FieldConfigArgument{}
	for name, cfg := range paginationArgs {
		merged[name] = cfg
	}
	for name, cfg := range args {
		merged[name] = cfg
	}
	return merged
}
