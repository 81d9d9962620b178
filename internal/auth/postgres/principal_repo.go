// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

// Package postgres implements auth repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/meshwork/meshwork/internal/auth"
)

// querier is the subset of pgxpool.Pool used by repositories.
// pgxmock satisfies it in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const principalColumns = `id, username, email, password_hash, name, bio, picture_url, deleted, created_at, updated_at`

// PrincipalRepository implements auth.PrincipalRepository using PostgreSQL.
type PrincipalRepository struct {
	pool querier
}

// NewPrincipalRepository creates a new PrincipalRepository.
func NewPrincipalRepository(pool querier) *PrincipalRepository {
	return &PrincipalRepository{pool: pool}
}

// Create stores a new principal.
func (r *PrincipalRepository) Create(ctx context.Context, p *auth.Principal) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO principals (`+principalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, p.ID.String(), p.Username, p.Email, p.PasswordHash, p.Name, p.Bio,
		p.PictureURL, p.Deleted, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return oops.Code("PRINCIPAL_EXISTS").
			With("username", p.Username).
			Wrap(auth.ErrAlreadyExists)
	}
	if err != nil {
		return oops.With("operation", "create principal").With("id", p.ID.String()).Wrap(err)
	}
	return nil
}

// GetByID retrieves a principal by ID, excluding soft-deleted records.
func (r *PrincipalRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Principal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+principalColumns+`
		FROM principals WHERE id = $1 AND NOT deleted
	`, id.String())

	p, err := scanPrincipal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PRINCIPAL_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get principal").With("id", id.String()).Wrap(err)
	}
	return p, nil
}

// GetByLogin retrieves a principal by username or email (case-insensitive),
// excluding soft-deleted records.
func (r *PrincipalRepository) GetByLogin(ctx context.Context, login string) (*auth.Principal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE (LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)) AND NOT deleted
	`, login)

	p, err := scanPrincipal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PRINCIPAL_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get principal by login").Wrap(err)
	}
	return p, nil
}

// Update updates an existing principal's profile fields.
func (r *PrincipalRepository) Update(ctx context.Context, p *auth.Principal) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE principals
		SET username = $2, email = $3, name = $4, bio = $5, picture_url = $6, updated_at = $7
		WHERE id = $1 AND NOT deleted
	`, p.ID.String(), p.Username, p.Email, p.Name, p.Bio, p.PictureURL, p.UpdatedAt)
	if isUniqueViolation(err) {
		return oops.Code("PRINCIPAL_EXISTS").
			With("username", p.Username).
			Wrap(auth.ErrAlreadyExists)
	}
	if err != nil {
		return oops.With("operation", "update principal").With("id", p.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PRINCIPAL_NOT_FOUND").With("id", p.ID.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdatePassword updates only the password hash for a principal.
func (r *PrincipalRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE principals SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND NOT deleted
	`, id.String(), passwordHash)
	if err != nil {
		return oops.With("operation", "update password").With("id", id.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PRINCIPAL_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// MarkDeleted soft-deletes a principal. Marking an already-deleted
// principal succeeds and returns the stored record unchanged.
func (r *PrincipalRepository) MarkDeleted(ctx context.Context, id ulid.ULID) (*auth.Principal, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE principals
		SET deleted = TRUE,
		    updated_at = CASE WHEN deleted THEN updated_at ELSE NOW() END
		WHERE id = $1
		RETURNING `+principalColumns+`
	`, id.String())

	p, err := scanPrincipal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PRINCIPAL_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "mark principal deleted").With("id", id.String()).Wrap(err)
	}
	return p, nil
}

// scanPrincipal scans one principal row.
func scanPrincipal(row pgx.Row) (*auth.Principal, error) {
	var p auth.Principal
	var idStr string

	err := row.Scan(&idStr, &p.Username, &p.Email, &p.PasswordHash, &p.Name,
		&p.Bio, &p.PictureURL, &p.Deleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse principal id").With("id", idStr).Wrap(err)
	}
	return &p, nil
}

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ auth.PrincipalRepository = (*PrincipalRepository)(nil)
