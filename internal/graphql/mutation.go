package graphql

import (
	"time"

	"github.com/graphql-go/graphql"

	"github.com/prn-tf/biblio/internal/domain"
	"github.com/prn-tf/biblio/internal/service"
)

func (r *resolver) mutationType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.users.Register(p.Context, service.RegisterInput{
						Name:     argString(p, "name"),
						Email:    argString(p, "email"),
						Password: argString(p, "password"),
					})
				},
			},
			"login": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.users.Login(p.Context, argString(p, "email"), argString(p, "password"))
				},
			},
			"createUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"role":     &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.users.Create(p.Context, service.CreateUserInput{
						Name:     argString(p, "name"),
						Email:    argString(p, "email"),
						Password: argString(p, "password"),
						Role:     domain.Role(argString(p, "role")),
					})
				},
			},
			"updateUser": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"name":      &graphql.ArgumentConfig{Type: graphql.String},
					"email":     &graphql.ArgumentConfig{Type: graphql.String},
					"password":  &graphql.ArgumentConfig{Type: graphql.String},
					"role":      &graphql.ArgumentConfig{Type: graphql.String},
					"is_active": &graphql.ArgumentConfig{Type: graphql.Boolean},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					input := service.UpdateUserInput{
						ID:       argID(p, "id"),
						Name:     optString(p, "name"),
						Email:    optString(p, "email"),
						Password: optString(p, "password"),
						IsActive: optBool(p, "is_active"),
					}
					if role := optString(p, "role"); role != nil {
						v := domain.Role(*role)
						input.Role = &v
					}
					return r.users.Update(p.Context, input)
				},
			},
			"deleteUser": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := r.users.Delete(p.Context, argID(p, "id")); err != nil {
						return nil, err
					}
					return true, nil
				},
			},
			"createBook": &graphql.Field{
				Type: bookType,
				Args: graphql.FieldConfigArgument{
					"title":            &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"author":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"isbn":             &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"genre":            &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"publisher":        &graphql.ArgumentConfig{Type: graphql.String},
					"description":      &graphql.ArgumentConfig{Type: graphql.String},
					"publication_date": &graphql.ArgumentConfig{Type: graphql.String},
					"total_copies":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.books.Create(p.Context, service.CreateBookInput{
						Title:           argString(p, "title"),
						Author:          argString(p, "author"),
						ISBN:            argString(p, "isbn"),
						Genre:           argString(p, "genre"),
						Publisher:       argString(p, "publisher"),
						Description:     argString(p, "description"),
						PublicationDate: argString(p, "publication_date"),
						TotalCopies:     argInt(p, "total_copies"),
					})
				},
			},
			"updateBook": &graphql.Field{
				Type: bookType,
				Args: graphql.FieldConfigArgument{
					"id":               &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"title":            &graphql.ArgumentConfig{Type: graphql.String},
					"author":           &graphql.ArgumentConfig{Type: graphql.String},
					"isbn":             &graphql.ArgumentConfig{Type: graphql.String},
					"genre":            &graphql.ArgumentConfig{Type: graphql.String},
					"publisher":        &graphql.ArgumentConfig{Type: graphql.String},
					"description":      &graphql.ArgumentConfig{Type: graphql.String},
					"publication_date": &graphql.ArgumentConfig{Type: graphql.String},
					"total_copies":     &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.books.Update(p.Context, service.UpdateBookInput{
						ID:              argID(p, "id"),
						Title:           optString(p, "title"),
						Author:          optString(p, "author"),
						ISBN:            optString(p, "isbn"),
						Genre:           optString(p, "genre"),
						Publisher:       optString(p, "publisher"),
						Description:     optString(p, "description"),
						PublicationDate: optString(p, "publication_date"),
						TotalCopies:     optInt(p, "total_copies"),
					})
				},
			},
			"deleteBook": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := r.books.Delete(p.Context, argID(p, "id")); err != nil {
						return nil, err
					}
					return true, nil
				},
			},
			"borrowBook": &graphql.Field{
				Type: borrowType,
				Args: graphql.FieldConfigArgument{
					"book_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"user_id": &graphql.ArgumentConfig{Type: graphql.Int},
					"notes":   &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return r.borrows.BorrowBook(p.Context, service.BorrowBookInput{
						UserID: argID(p, "user_id"),
						BookID: argID(p, "book_id"),
						Notes:  argString(p, "notes"),
					})
				},
			},
			"returnBook": &graphql.Field{
				Type: borrowType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := argUUID(p, "id")
					if err != nil {
						return nil, err
					}
					return r.borrows.ReturnBook(p.Context, id)
				},
			},
			"renewBook": &graphql.Field{
				Type: borrowType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := argUUID(p, "id")
					if err != nil {
						return nil, err
					}
					return r.borrows.RenewBook(p.Context, id)
				},
			},
			"updateBorrow": &graphql.Field{
				Type: borrowType,
				Args: graphql.FieldConfigArgument{
					"id":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"due_date": &graphql.ArgumentConfig{Type: graphql.DateTime},
					"fine":     &graphql.ArgumentConfig{Type: graphql.Float},
					"notes":    &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, err := argUUID(p, "id")
					if err != nil {
						return nil, err
					}
					input := service.UpdateBorrowInput{
						ID:    id,
						Fine:  optFloat(p, "fine"),
						Notes: optString(p, "notes"),
					}
					if due, ok := p.Args["due_date"].(time.Time); ok {
						input.DueDate = &due
					}
					return r.borrows.UpdateBorrow(p.Context, input)
				},
			},
		},
	})
}
