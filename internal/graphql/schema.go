// Package graphql exposes the Biblio API as a single GraphQL endpoint.
// It delegates to the same services as the REST handlers, so both
// surfaces share one set of business rules and access checks.
package graphql

import (
	"github.com/graphql-go/graphql"
)

// Field names follow the snake_case JSON tags of the domain structs so
// the library's default resolver can read them directly.

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"email":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"role":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"is_active":       &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"membership_date": &graphql.Field{Type: graphql.DateTime},
		"created_at":      &graphql.Field{Type: graphql.DateTime},
		"updated_at":      &graphql.Field{Type: graphql.DateTime},
	},
})

var bookType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Book",
	Fields: graphql.Fields{
		"id":               &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"title":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"author":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"isbn":             &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"genre":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"publisher":        &graphql.Field{Type: graphql.String},
		"description":      &graphql.Field{Type: graphql.String},
		"publication_date": &graphql.Field{Type: graphql.String},
		"total_copies":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"available_copies": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"is_active":        &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"created_at":       &graphql.Field{Type: graphql.DateTime},
		"updated_at":       &graphql.Field{Type: graphql.DateTime},
	},
})

var borrowType = graphql.NewObject(graphql.ObjectConfig{
	Name: "BorrowRecord",
	Fields: graphql.Fields{
		"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"user_id":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"book_id":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"borrow_date":   &graphql.Field{Type: graphql.DateTime},
		"due_date":      &graphql.Field{Type: graphql.DateTime},
		"return_date":   &graphql.Field{Type: graphql.DateTime},
		"status":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"fine":          &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"renewal_count": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"notes":         &graphql.Field{Type: graphql.String},
		"created_at":    &graphql.Field{Type: graphql.DateTime},
		"updated_at":    &graphql.Field{Type: graphql.DateTime},
	},
})

var authPayloadType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AuthPayload",
	Fields: graphql.Fields{
		"user":  &graphql.Field{Type: graphql.NewNonNull(userType)},
		"token": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var eligibilityType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Eligibility",
	Fields: graphql.Fields{
		"eligible":        &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"reason":          &graphql.Field{Type: graphql.String},
		"active_borrows":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"overdue_borrows": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"max_borrows":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var bookUsageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "BookUsage",
	Fields: graphql.Fields{
		"book":             &graphql.Field{Type: graphql.NewNonNull(bookType)},
		"borrow_count":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"active_borrows":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_fines":      &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"popularity_score": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
	},
})

var memberActivityType = graphql.NewObject(graphql.ObjectConfig{
	Name: "MemberActivity",
	Fields: graphql.Fields{
		"user":                &graphql.Field{Type: graphql.NewNonNull(userType)},
		"total_borrows":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"active_borrows":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"returned_books":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"overdue_books":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_fines":         &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"total_renewals":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"avg_borrow_duration": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"activity_score":      &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
	},
})

var bookAvailabilityType = graphql.NewObject(graphql.ObjectConfig{
	Name: "BookAvailability",
	Fields: graphql.Fields{
		"book":                    &graphql.Field{Type: graphql.NewNonNull(bookType)},
		"borrowed_copies":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_borrows":           &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_fines_generated":   &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"availability_percentage": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"status":                  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var availabilitySummaryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AvailabilitySummary",
	Fields: graphql.Fields{
		"total_books":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_copies":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_available":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_borrowed":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"out_of_stock":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"low_stock":            &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"available_books":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"overall_availability": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
	},
})

var availabilityReportType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AvailabilityReport",
	Fields: graphql.Fields{
		"books":   &graphql.Field{Type: graphql.NewList(bookAvailabilityType)},
		"summary": &graphql.Field{Type: availabilitySummaryType},
	},
})

var genreUsageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "GenreUsage",
	Fields: graphql.Fields{
		"genre":             &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"total_books":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_copies":      &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"available_copies":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"borrowed_copies":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_borrows":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"active_borrows":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_fines":       &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"availability_rate": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"popularity_score":  &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
	},
})

var libraryStatsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "LibraryStats",
	Fields: graphql.Fields{
		"total_users":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_books":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_borrows":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"active_borrows":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"overdue_borrows": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"total_fines":     &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
	},
})
