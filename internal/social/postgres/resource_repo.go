// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

// Package postgres implements the social resource store using PostgreSQL.
// All resource kinds share one table with a kind discriminator and a
// JSONB fields column.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/meshwork/meshwork/internal/social"
)

// querier is the subset of pgxpool.Pool used by the store.
// pgxmock satisfies it in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const resourceColumns = `id, kind, owner_id, parent_id, fields, deleted, created_at, updated_at`

// ResourceStore implements social.ResourceStore using PostgreSQL.
type ResourceStore struct {
	pool querier
}

// NewResourceStore creates a new ResourceStore.
func NewResourceStore(pool querier) *ResourceStore {
	return &ResourceStore{pool: pool}
}

// Insert stores a new resource.
func (s *ResourceStore) Insert(ctx context.Context, res *social.Resource) error {
	var parentID *string
	if res.ParentID != nil {
		v := res.ParentID.String()
		parentID = &v
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO resources (`+resourceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, res.ID.String(), string(res.Kind), res.OwnerID.String(), parentID,
		res.Fields, res.Deleted, res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return oops.With("operation", "insert resource").With("id", res.ID.String()).Wrap(err)
	}
	return nil
}

// Get retrieves a live resource by kind and ID.
func (s *ResourceStore) Get(ctx context.Context, kind social.Kind, id ulid.ULID) (*social.Resource, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+resourceColumns+`
		FROM resources WHERE id = $1 AND kind = $2 AND NOT deleted
	`, id.String(), string(kind))

	res, err := scanResource(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESOURCE_NOT_FOUND").
			With("kind", string(kind)).With("id", id.String()).
			Wrap(social.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get resource").With("id", id.String()).Wrap(err)
	}
	return res, nil
}

// ListByOwner retrieves all live resources of a kind owned by a principal.
func (s *ResourceStore) ListByOwner(ctx context.Context, kind social.Kind, ownerID ulid.ULID) ([]*social.Resource, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+resourceColumns+`
		FROM resources WHERE kind = $1 AND owner_id = $2 AND NOT deleted
	`, string(kind), ownerID.String())
	if err != nil {
		return nil, oops.With("operation", "list resources by owner").Wrap(err)
	}
	defer rows.Close()

	return collectResources(rows)
}

// ListByParent retrieves one page of live resources of a kind under a
// parent, newest first, along with the total count of matching rows.
func (s *ResourceStore) ListByParent(ctx context.Context, kind social.Kind, parentID ulid.ULID, page, pageSize int) ([]*social.Resource, int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM resources
		WHERE kind = $1 AND parent_id = $2 AND NOT deleted
	`, string(kind), parentID.String()).Scan(&total)
	if err != nil {
		return nil, 0, oops.With("operation", "count resources by parent").Wrap(err)
	}

	offset := (page - 1) * pageSize
	rows, err := s.pool.Query(ctx, `
		SELECT `+resourceColumns+`
		FROM resources
		WHERE kind = $1 AND parent_id = $2 AND NOT deleted
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`, string(kind), parentID.String(), pageSize, offset)
	if err != nil {
		return nil, 0, oops.With("operation", "list resources by parent").Wrap(err)
	}
	defer rows.Close()

	items, err := collectResources(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetByOwnerAndParent retrieves the single live resource of a kind with a
// given owner and parent. Callers rely on the partial unique index on
// (kind, owner_id, parent_id) to keep this unambiguous.
func (s *ResourceStore) GetByOwnerAndParent(ctx context.Context, kind social.Kind, ownerID, parentID ulid.ULID) (*social.Resource, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+resourceColumns+`
		FROM resources
		WHERE kind = $1 AND owner_id = $2 AND parent_id = $3 AND NOT deleted
	`, string(kind), ownerID.String(), parentID.String())

	res, err := scanResource(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESOURCE_NOT_FOUND").
			With("kind", string(kind)).With("owner_id", ownerID.String()).
			Wrap(social.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "get resource by owner and parent").Wrap(err)
	}
	return res, nil
}

// UpdateFields merges a field patch into a live resource and returns the
// updated record.
func (s *ResourceStore) UpdateFields(ctx context.Context, kind social.Kind, id ulid.ULID, patch social.Fields) (*social.Resource, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE resources SET fields = fields || $3, updated_at = NOW()
		WHERE id = $1 AND kind = $2 AND NOT deleted
		RETURNING `+resourceColumns+`
	`, id.String(), string(kind), patch)

	res, err := scanResource(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESOURCE_NOT_FOUND").
			With("kind", string(kind)).With("id", id.String()).
			Wrap(social.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "update resource fields").With("id", id.String()).Wrap(err)
	}
	return res, nil
}

// MarkDeleted soft-deletes a resource. Marking an already-deleted resource
// succeeds and returns the stored record unchanged.
func (s *ResourceStore) MarkDeleted(ctx context.Context, kind social.Kind, id ulid.ULID) (*social.Resource, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE resources
		SET deleted = TRUE,
		    updated_at = CASE WHEN deleted THEN updated_at ELSE NOW() END
		WHERE id = $1 AND kind = $2
		RETURNING `+resourceColumns+`
	`, id.String(), string(kind))

	res, err := scanResource(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("RESOURCE_NOT_FOUND").
			With("kind", string(kind)).With("id", id.String()).
			Wrap(social.ErrNotFound)
	}
	if err != nil {
		return nil, oops.With("operation", "mark resource deleted").With("id", id.String()).Wrap(err)
	}
	return res, nil
}

// scanResource scans one resource row.
func scanResource(row pgx.Row) (*social.Resource, error) {
	var res social.Resource
	var idStr, kindStr, ownerStr string
	var parentStr *string

	err := row.Scan(&idStr, &kindStr, &ownerStr, &parentStr, &res.Fields,
		&res.Deleted, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}

	res.Kind = social.Kind(kindStr)
	if res.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.With("operation", "parse resource id").With("id", idStr).Wrap(err)
	}
	if res.OwnerID, err = ulid.Parse(ownerStr); err != nil {
		return nil, oops.With("operation", "parse resource owner id").With("id", ownerStr).Wrap(err)
	}
	if parentStr != nil {
		parent, perr := ulid.Parse(*parentStr)
		if perr != nil {
			return nil, oops.With("operation", "parse resource parent id").With("id", *parentStr).Wrap(perr)
		}
		res.ParentID = &parent
	}
	return &res, nil
}

// collectResources drains rows into a slice.
func collectResources(rows pgx.Rows) ([]*social.Resource, error) {
	var items []*social.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, oops.With("operation", "scan resource").Wrap(err)
		}
		items = append(items, res)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate resources").Wrap(err)
	}
	return items, nil
}

// Compile-time interface check.
var _ social.ResourceStore = (*ResourceStore)(nil)
