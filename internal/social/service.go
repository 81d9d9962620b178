// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package social

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Pagination bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Meta describes one page of a listing.
type Meta struct {
	Total    int64
	Page     int
	PageSize int
}

// Page is one page of resources plus its pagination metadata.
type Page struct {
	Data []*Resource
	Meta Meta
}

// Service provides create/read/update/remove for one resource kind.
// It is the single generic implementation behind every kind; per-kind
// behavior comes from the KindSpec descriptor. Every mutation loads the
// resource, authorizes ownership, and only then touches the store.
type Service struct {
	spec   KindSpec
	store  ResourceStore
	logger *slog.Logger
}

// NewService creates a Service for one resource kind.
func NewService(spec KindSpec, store ResourceStore, logger *slog.Logger) (*Service, error) {
	if spec.Kind == "" {
		return nil, oops.Errorf("kind spec is required")
	}
	if store == nil {
		return nil, oops.Errorf("resource store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{spec: spec, store: store, logger: logger}, nil
}

// Kind returns the resource kind this service handles.
func (s *Service) Kind() Kind {
	return s.spec.Kind
}

// Create validates the fields, resolves the parent when the kind declares
// one, then inserts. The parent must exist and not be soft-deleted before
// any insert is attempted; the check-then-insert window is an accepted
// weak-consistency window, not hidden behind a transaction the store does
// not promise.
func (s *Service) Create(ctx context.Context, ownerID ulid.ULID, parentID *ulid.ULID, fields Fields) (*Resource, error) {
	if err := ValidateFields(s.spec, fields, false); err != nil {
		return nil, err
	}

	if err := s.resolveParent(ctx, parentID); err != nil {
		return nil, err
	}
	if !s.spec.HasParent() && parentID != nil {
		return nil, &ValidationError{Field: "parent", Message: "kind does not take a parent"}
	}

	now := time.Now()
	res := &Resource{
		ID:        ulid.Make(),
		Kind:      s.spec.Kind,
		OwnerID:   ownerID,
		ParentID:  parentID,
		Fields:    fields.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, res); err != nil {
		return nil, oops.Code("RESOURCE_CREATE_FAILED").
			With("kind", string(s.spec.Kind)).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "resource created",
		"kind", string(s.spec.Kind),
		"resource_id", res.ID.String(),
	)
	return res, nil
}

// Get retrieves a live resource by ID.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Resource, error) {
	res, err := s.store.Get(ctx, s.spec.Kind, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("RESOURCE_GET_FAILED").
			With("kind", string(s.spec.Kind)).
			With("resource_id", id.String()).
			Wrap(err)
	}
	return res, nil
}

// ListByOwner returns all live resources owned by a principal, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*Resource, error) {
	items, err := s.store.ListByOwner(ctx, s.spec.Kind, ownerID)
	if err != nil {
		return nil, oops.Code("RESOURCE_LIST_FAILED").
			With("kind", string(s.spec.Kind)).
			With("owner_id", ownerID.String()).
			Wrap(err)
	}
	// The store promises set semantics only; ordering is decided here.
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// ListByParent returns one page of live resources under a parent, newest
// first, after resolving the parent exactly as Create does.
func (s *Service) ListByParent(ctx context.Context, parentID ulid.ULID, page, pageSize int) (*Page, error) {
	if err := s.resolveParent(ctx, &parentID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	items, total, err := s.store.ListByParent(ctx, s.spec.Kind, parentID, page, pageSize)
	if err != nil {
		return nil, oops.Code("RESOURCE_LIST_FAILED").
			With("kind", string(s.spec.Kind)).
			With("parent_id", parentID.String()).
			Wrap(err)
	}

	return &Page{
		Data: items,
		Meta: Meta{Total: total, Page: page, PageSize: pageSize},
	}, nil
}

// Update applies a partial field patch after loading the resource and
// checking ownership, in that order. An unauthorized caller gets
// ErrUnauthorized regardless of what it tried to change.
func (s *Service) Update(ctx context.Context, id ulid.ULID, patch Fields, principalID ulid.ULID) (*Resource, error) {
	if patch == nil {
		// A JSON null body decodes to a nil map; normalize so the store
		// never merges SQL NULL into the fields document.
		patch = Fields{}
	}
	if err := ValidateFields(s.spec, patch, true); err != nil {
		return nil, err
	}

	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(res, principalID); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateFields(ctx, s.spec.Kind, id, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("RESOURCE_UPDATE_FAILED").
			With("kind", string(s.spec.Kind)).
			With("resource_id", id.String()).
			Wrap(err)
	}
	return updated, nil
}

// Remove soft-deletes a resource after loading it and checking ownership.
// Deleted is terminal: the resource drops out of all default lookups and
// there is no un-delete path.
func (s *Service) Remove(ctx context.Context, id ulid.ULID, principalID ulid.ULID) (*Resource, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(res, principalID); err != nil {
		return nil, err
	}

	removed, err := s.store.MarkDeleted(ctx, s.spec.Kind, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("RESOURCE_REMOVE_FAILED").
			With("kind", string(s.spec.Kind)).
			With("resource_id", id.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "resource removed",
		"kind", string(s.spec.Kind),
		"resource_id", id.String(),
	)
	return removed, nil
}

// resolveParent validates the parent reference against the kind descriptor
// and confirms the parent is live. Absent or soft-deleted parents yield
// ErrParentNotFound before any write happens.
func (s *Service) resolveParent(ctx context.Context, parentID *ulid.ULID) error {
	if !s.spec.HasParent() {
		return nil
	}
	if parentID == nil {
		if s.spec.ParentOptional {
			return nil
		}
		return &ValidationError{Field: "parent", Message: "is required"}
	}

	_, err := s.store.Get(ctx, s.spec.Parent, *parentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("PARENT_NOT_FOUND").
				With("parent_kind", string(s.spec.Parent)).
				With("parent_id", parentID.String()).
				Wrap(ErrParentNotFound)
		}
		return oops.Code("PARENT_RESOLVE_FAILED").
			With("parent_kind", string(s.spec.Parent)).
			With("parent_id", parentID.String()).
			Wrap(err)
	}
	return nil
}
