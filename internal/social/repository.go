// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package social

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// ResourceStore manages owned-resource persistence for all kinds.
// Lookups exclude soft-deleted resources unless noted otherwise.
type ResourceStore interface {
	// Insert persists a new resource.
	Insert(ctx context.Context, res *Resource) error

	// Get retrieves a resource by kind and ID.
	Get(ctx context.Context, kind Kind, id ulid.ULID) (*Resource, error)

	// ListByOwner returns all live resources of a kind owned by a principal.
	// No ordering is promised at the store level.
	ListByOwner(ctx context.Context, kind Kind, ownerID ulid.ULID) ([]*Resource, error)

	// ListByParent returns one page of live resources of a kind under a
	// parent, newest first, plus the total count before pagination.
	// page is 1-indexed.
	ListByParent(ctx context.Context, kind Kind, parentID ulid.ULID, page, pageSize int) ([]*Resource, int64, error)

	// GetByOwnerAndParent retrieves the live resource of a kind with the
	// given owner and parent, if any. Used for one-per-(owner, parent)
	// kinds such as reactions.
	GetByOwnerAndParent(ctx context.Context, kind Kind, ownerID, parentID ulid.ULID) (*Resource, error)

	// UpdateFields merges a partial field set into a resource's document.
	// Fields absent from the input are left untouched.
	UpdateFields(ctx context.Context, kind Kind, id ulid.ULID, fields Fields) (*Resource, error)

	// MarkDeleted sets the soft-delete flag. Idempotent: marking an
	// already-deleted resource succeeds and returns the stored record.
	MarkDeleted(ctx context.Context, kind Kind, id ulid.ULID) (*Resource, error)
}
