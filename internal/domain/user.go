// Package domain contains the core business entities for Biblio.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the library system.
package domain

import (
	"time"
)

// Role identifies the capability level of a user account.
type Role string

const (
	// RoleAdmin can manage users, books, and view analytics.
	RoleAdmin Role = "Admin"

	// RoleMember can borrow books and manage their own account.
	RoleMember Role = "Member"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User represents a registered library member or administrator.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the unique email address used for login.
	// Uniqueness holds across active and soft-deleted accounts.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This is never exposed in API responses.
	PasswordHash string `json:"-"`

	// Role determines what the user may do. Admins manage the catalog
	// and see analytics; Members borrow books.
	Role Role `json:"role"`

	// IsActive indicates whether the account is active.
	// Accounts are soft-deleted by flipping this to false.
	IsActive bool `json:"is_active"`

	// MembershipDate is when the user joined the library.
	MembershipDate time.Time `json:"membership_date"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with default values.
func NewUser(name, email, passwordHash string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		Name:           name,
		Email:          email,
		PasswordHash:   passwordHash,
		Role:           role,
		IsActive:       true,
		MembershipDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CanAuthenticate returns true if the user is allowed to log in.
func (u *User) CanAuthenticate() bool {
	return u.IsActive
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
