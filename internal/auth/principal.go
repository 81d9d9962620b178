// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// usernameRegex matches usernames that:
// - Start with a letter (a-z, A-Z)
// - Contain only letters, numbers, and underscores
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// emailRegex is a pragmatic format check, not a full RFC 5322 parse.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Principal represents an authenticated actor's account.
// PasswordHash never leaves this package's service boundary.
type Principal struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash string
	Name         string
	Bio          string
	PictureURL   string
	Deleted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PrincipalPatch is a partial update to a principal's profile.
// Nil fields are left untouched.
type PrincipalPatch struct {
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	Name       *string `json:"name"`
	Bio        *string `json:"bio"`
	PictureURL *string `json:"picture_url"`
}

// Apply copies the patch's set fields onto the principal.
func (p *PrincipalPatch) Apply(principal *Principal) {
	if p.Username != nil {
		principal.Username = *p.Username
	}
	if p.Email != nil {
		principal.Email = *p.Email
	}
	if p.Name != nil {
		principal.Name = *p.Name
	}
	if p.Bio != nil {
		principal.Bio = *p.Bio
	}
	if p.PictureURL != nil {
		principal.PictureURL = *p.PictureURL
	}
	principal.UpdatedAt = time.Now()
}

// Validate checks the patch's set fields against account rules.
func (p *PrincipalPatch) Validate() error {
	if p.Username != nil {
		if err := ValidateUsername(*p.Username); err != nil {
			return err
		}
	}
	if p.Email != nil {
		if err := ValidateEmail(*p.Email); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUsername validates a username against account rules.
// Username requirements:
// - Length: MinUsernameLength to MaxUsernameLength characters
// - Must start with a letter
// - Can contain only letters (a-z, A-Z), numbers (0-9), and underscores (_)
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Wrapf(ErrInvalidInput, "username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Wrapf(ErrInvalidInput, "username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Wrapf(ErrInvalidInput, "username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Wrapf(ErrInvalidInput, "username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidateEmail validates an email address format.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Wrapf(ErrInvalidInput, "email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").With("email", email).Wrapf(ErrInvalidInput, "invalid email address")
	}
	return nil
}

// ValidatePassword validates a plaintext password against account rules.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Wrapf(ErrInvalidInput, "password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// PrincipalRepository manages principal persistence.
// All lookups exclude soft-deleted principals.
type PrincipalRepository interface {
	// Create stores a new principal. Returns ErrAlreadyExists if the
	// username or email is taken.
	Create(ctx context.Context, principal *Principal) error

	// GetByID retrieves a principal by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Principal, error)

	// GetByLogin retrieves a principal whose username or email matches
	// the login identifier (case-insensitive).
	GetByLogin(ctx context.Context, login string) (*Principal, error)

	// Update updates an existing principal's profile fields.
	// Returns ErrAlreadyExists if the new username or email is taken.
	Update(ctx context.Context, principal *Principal) error

	// UpdatePassword updates only the password hash for a principal.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// MarkDeleted soft-deletes a principal. Idempotent: marking an
	// already-deleted principal succeeds and returns the stored record.
	MarkDeleted(ctx context.Context, id ulid.ULID) (*Principal, error)
}
