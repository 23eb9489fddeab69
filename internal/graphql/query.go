package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/prn-tf/biblio/internal/service"
)

func (r *resolver) queryType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.users.Me(p.Context)
				},
			},
			"user": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.users.GetByID(p.Context, argID(p, "id"))
				},
			},
			"users": &graphql.Field{
				Type: graphql.NewList(userType),
				Args: withPagination(nil),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit, offset := pageArgs(p)
					out, err := r.users.List(p.Context, service.ListUsersInput{Limit: limit, Offset: offset})
					if err != nil {
						return nil, err
					}
					return out.Users, nil
				},
			},
			"book": &graphql.Field{
				Type: bookType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.books.GetByID(p.Context, argID(p, "id"))
				},
			},
			"books": &graphql.Field{
				Type: graphql.NewList(bookType),
				Args: withPagination(graphql.FieldConfigArgument{
					"genre":     &graphql.ArgumentConfig{Type: graphql.String},
					"author":    &graphql.ArgumentConfig{Type: graphql.String},
					"search":    &graphql.ArgumentConfig{Type: graphql.String},
					"available": &graphql.ArgumentConfig{Type: graphql.Boolean},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit, offset := pageArgs(p)
					out, err := r.books.List(p.Context, service.ListBooksInput{
						Genre:         argString(p, "genre"),
						Author:        argString(p, "author"),
						Search:        argString(p, "search"),
						AvailableOnly: argBool(p, "available"),
						Limit:         limit,
						Offset:        offset,
					})
					if err != nil {
						return nil, err
					}
					return out.Books, nil
				},
			},
			"searchBooks": &graphql.Field{
				Type: graphql.NewList(bookType),
				Args: withPagination(graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit, offset := pageArgs(p)
					out, err := r.books.List(p.Context, service.ListBooksInput{
						Search: argString(p, "query"),
						Limit:  limit,
						Offset: offset,
					})
					if err != nil {
						return nil, err
					}
					return out.Books, nil
				},
			},
			"borrow": &graphql.Field{
				Type: borrowType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := argUUID(p, "id")
					if err != nil {
						return nil, err
					}
					return r.borrows.GetByID(p.Context, id)
				},
			},
			"borrows": &graphql.Field{
				Type: graphql.NewList(borrowType),
				Args: withPagination(graphql.FieldConfigArgument{
					"user_id": &graphql.ArgumentConfig{Type: graphql.Int},
					"book_id": &graphql.ArgumentConfig{Type: graphql.Int},
					"status":  &graphql.ArgumentConfig{Type: graphql.String},
					"overdue": &graphql.ArgumentConfig{Type: graphql.Boolean},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					out, err := r.borrows.List(p.Context, r.borrowListInput(p))
					if err != nil {
						return nil, err
					}
					return out.Records, nil
				},
			},
			"myBorrows": &graphql.Field{
				Type: graphql.NewList(borrowType),
				Args: withPagination(graphql.FieldConfigArgument{
					"status":  &graphql.ArgumentConfig{Type: graphql.String},
					"overdue": &graphql.ArgumentConfig{Type: graphql.Boolean},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					out, err := r.borrows.MyBorrows(p.Context, r.borrowListInput(p))
					if err != nil {
						return nil, err
					}
					return out.Records, nil
				},
			},
			"overdueBorrows": &graphql.Field{
				Type: graphql.NewList(borrowType),
				Args: withPagination(nil),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					out, err := r.borrows.OverdueBorrows(p.Context, r.borrowListInput(p))
					if err != nil {
						return nil, err
					}
					return out.Records, nil
				},
			},
			"canUserBorrow": &graphql.Field{
				Type: eligibilityType,
				Args: graphql.FieldConfigArgument{
					"user_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.borrows.CanUserBorrow(p.Context, argID(p, "user_id"))
				},
			},
			"mostBorrowedBooks": &graphql.Field{
				Type: graphql.NewList(bookUsageType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.analytics.MostBorrowedBooks(p.Context, argInt(p, "limit"))
				},
			},
			"mostActiveMembers": &graphql.Field{
				Type: graphql.NewList(memberActivityType),
				Args: graphql.FieldConfigArgument{
					"limit": &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.analytics.MostActiveMembers(p.Context, argInt(p, "limit"))
				},
			},
			"bookAvailabilityReport": &graphql.Field{
				Type: availabilityReportType,
				Args: graphql.FieldConfigArgument{
					"genre":  &graphql.ArgumentConfig{Type: graphql.String},
					"author": &graphql.ArgumentConfig{Type: graphql.String},
					"search": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.analytics.BookAvailabilityReport(p.Context, service.AvailabilityReportInput{
						Genre:  argString(p, "genre"),
						Author: argString(p, "author"),
						Search: argString(p, "search"),
					})
				},
			},
			"genreStats": &graphql.Field{
				Type: graphql.NewList(genreUsageType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.analytics.GenreStats(p.Context)
				},
			},
			"libraryStats": &graphql.Field{
				Type: libraryStatsType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.analytics.GetLibraryStats(p.Context)
				},
			},
		},
	})
}

func (r *resolver) borrowListInput(p graphql.ResolveParams) service.ListBorrowsInput {
	limit, offset := pageArgs(p)
	return service.ListBorrowsInput{
		UserID:      argID(p, "user_id"),
		BookID:      argID(p, "book_id"),
		Status:      borrowStatusArg(p),
		OverdueOnly: argBool(p, "overdue"),
		Limit:       limit,
		Offset:      offset,
	}
}
