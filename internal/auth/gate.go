package auth

import (
	"context"

	"github.com/prn-tf/biblio/internal/domain"
)

// Role gates applied by services before privileged operations.
//
// An absent caller yields ErrUnauthorized; a present caller lacking
// the required role yields ErrForbidden. Services return these
// unchanged so handlers can map them to 401/403.

// RequireAuthenticated returns the caller or ErrUnauthorized.
func RequireAuthenticated(ctx context.Context) (*Caller, error) {
	caller := CallerFrom(ctx)
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	return caller, nil
}

// RequireAdmin returns the caller if it holds the admin role.
func RequireAdmin(ctx context.Context) (*Caller, error) {
	caller, err := RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return caller, nil
}

// RequireSelfOrAdmin returns the caller if it is the named user or an
// admin. Members may only touch their own resources.
func RequireSelfOrAdmin(ctx context.Context, userID int64) (*Caller, error) {
	caller, err := RequireAuthenticated(ctx)
	if err != nil {
		return nil, err
	}
	if caller.UserID != userID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return caller, nil
}
