// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package auth

import "errors"

// Sentinel errors returned by the auth service and principal repository.
// Callers discriminate on these with errors.Is; anything else is an
// internal fault.
var (
	// ErrNotFound is returned when a requested principal does not exist
	// or has been soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a username or email is already taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCredentials is returned for both unknown accounts and wrong
	// passwords. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for malformed, tampered, or expired tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized is returned when a principal attempts to mutate an
	// account other than its own.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput is wrapped by all credential and profile validation
	// failures (bad username, email, or password shape).
	ErrInvalidInput = errors.New("invalid input")
)
