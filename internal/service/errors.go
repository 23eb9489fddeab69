// Package service provides business logic services for Biblio.
package service

import "errors"

// Common service errors. Business rule violations use the sentinels in
// internal/domain; these cover input validation and infrastructure
// failures surfaced by services.
var (
	ErrInvalidName     = errors.New("invalid name: must be 1-255 characters")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidPassword = errors.New("invalid password: must be at least 8 characters")
	ErrInvalidRole     = errors.New("invalid role: must be Admin or Member")

	ErrInternalError = errors.New("internal server error")
)
