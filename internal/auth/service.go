// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// dummyPasswordHash is used when a principal doesn't exist to prevent timing
// attacks. We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// ServiceConfig holds dependencies for the auth Service.
type ServiceConfig struct {
	Principals PrincipalRepository
	Hasher     PasswordHasher
	Tokens     *TokenIssuer
	Logger     *slog.Logger
}

// Service provides account registration, login, token refresh, and
// self-service profile mutation for principals.
type Service struct {
	principals PrincipalRepository
	hasher     PasswordHasher
	tokens     *TokenIssuer
	logger     *slog.Logger
}

// NewService creates a new Service. All dependencies except Logger are required.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Principals == nil {
		return nil, oops.Errorf("principal repository is required")
	}
	if cfg.Hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if cfg.Tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		principals: cfg.Principals,
		hasher:     cfg.Hasher,
		tokens:     cfg.Tokens,
		logger:     logger,
	}, nil
}

// RegisterInput carries the fields for a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
	Bio      string
}

// Register creates a new principal account.
// Returns ErrAlreadyExists when the username or email is taken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Principal, error) {
	if err := ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	now := time.Now()
	principal := &Principal{
		ID:           ulid.Make(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Bio:          in.Bio,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.principals.Create(ctx, principal); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, err
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create principal").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "principal registered", "principal_id", principal.ID.String())
	return principal, nil
}

// Login authenticates a principal by username or email and mints a session
// token. Unknown accounts and wrong passwords both return
// ErrInvalidCredentials; the lookup-miss path still verifies against a dummy
// hash to keep response time uniform.
func (s *Service) Login(ctx context.Context, login, password string) (*Principal, string, error) {
	principal, lookupErr := s.principals.GetByLogin(ctx, login)

	targetHash := dummyPasswordHash
	exists := false
	switch {
	case lookupErr == nil:
		targetHash = principal.PasswordHash
		exists = true
	case errors.Is(lookupErr, ErrNotFound):
		// keep the dummy hash
	default:
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get principal by login").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !exists {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !exists || !valid {
		return nil, "", ErrInvalidCredentials
	}

	// Transparent hash upgrade (e.g., from bcrypt). Login succeeds even
	// if the upgrade write fails.
	if s.hasher.NeedsUpgrade(principal.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			if updErr := s.principals.UpdatePassword(ctx, principal.ID, newHash); updErr == nil {
				principal.PasswordHash = newHash
			}
		}
	}

	token, err := s.tokens.Issue(principal.ID)
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "principal logged in", "principal_id", principal.ID.String())
	return principal, token, nil
}

// Refresh mints a new token from a presented, still-valid token.
// Expired tokens are not refreshable; see TokenIssuer.Refresh.
func (s *Service) Refresh(_ context.Context, token string) (string, error) {
	return s.tokens.Refresh(token)
}

// Get retrieves a principal by ID.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Principal, error) {
	principal, err := s.principals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("AUTH_GET_FAILED").
			With("principal_id", id.String()).
			Wrap(err)
	}
	return principal, nil
}

// Update applies a profile patch to a principal's own account.
// A principal may only mutate itself; anything else is ErrUnauthorized.
// Password is never part of a patch - see ChangePassword.
func (s *Service) Update(ctx context.Context, id ulid.ULID, patch PrincipalPatch, actingID ulid.ULID) (*Principal, error) {
	if id != actingID {
		return nil, ErrUnauthorized
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	principal, err := s.principals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("AUTH_UPDATE_FAILED").
			With("principal_id", id.String()).
			Wrap(err)
	}

	patch.Apply(principal)

	if err := s.principals.Update(ctx, principal); err != nil {
		if errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("AUTH_UPDATE_FAILED").
			With("principal_id", id.String()).
			Wrap(err)
	}

	return principal, nil
}

// Remove soft-deletes a principal's own account. The record is marked,
// never physically removed, and drops out of all default lookups.
func (s *Service) Remove(ctx context.Context, id ulid.ULID, actingID ulid.ULID) (*Principal, error) {
	if id != actingID {
		return nil, ErrUnauthorized
	}

	principal, err := s.principals.MarkDeleted(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("AUTH_REMOVE_FAILED").
			With("principal_id", id.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "principal removed", "principal_id", id.String())
	return principal, nil
}

// ChangePassword rehashes and stores a new password after verifying the
// current one.
func (s *Service) ChangePassword(ctx context.Context, id ulid.ULID, current, next string) error {
	if err := ValidatePassword(next); err != nil {
		return err
	}

	principal, err := s.principals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("principal_id", id.String()).
			Wrap(err)
	}

	valid, err := s.hasher.Verify(current, principal.PasswordHash)
	if err != nil {
		return oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("operation", "verify current password").
			Wrap(err)
	}
	if !valid {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("operation", "hash new password").
			Wrap(err)
	}

	if err := s.principals.UpdatePassword(ctx, id, hash); err != nil {
		return oops.Code("AUTH_PASSWORD_CHANGE_FAILED").
			With("operation", "store new password").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password changed", "principal_id", id.String())
	return nil
}
