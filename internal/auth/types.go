// Package auth provides bearer-token authentication and role checks
// for the Biblio API.
package auth

import (
	"context"

	"github.com/prn-tf/biblio/internal/domain"
)

// Caller identifies the authenticated principal of a request.
type Caller struct {
	// UserID is the ID of the authenticated user.
	UserID int64

	// Name is the user's display name.
	Name string

	// Email is the user's email address.
	Email string

	// Role determines what the caller may do.
	Role domain.Role
}

// IsAdmin returns true if the caller has the admin role.
func (c *Caller) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

// callerCtxKey is the context key for the authenticated caller.
type callerCtxKey struct{}

// WithCaller returns a context carrying the caller.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey{}, caller)
}

// CallerFrom extracts the caller from the context.
// Returns nil for anonymous requests.
func CallerFrom(ctx context.Context) *Caller {
	caller, _ := ctx.Value(callerCtxKey{}).(*Caller)
	return caller
}
