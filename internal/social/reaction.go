// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package social

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ReactionService handles the one-reaction-per-(principal, post) rule.
// React is an upsert: a principal's second reaction to the same post
// replaces the first instead of accumulating. Setting the status to
// ReactionNeutral keeps the row; neutral is a state, not a delete.
type ReactionService struct {
	store  ResourceStore
	logger *slog.Logger
}

// NewReactionService creates a ReactionService.
func NewReactionService(store ResourceStore, logger *slog.Logger) (*ReactionService, error) {
	if store == nil {
		return nil, oops.Errorf("resource store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReactionService{store: store, logger: logger}, nil
}

// React records a principal's reaction to a post, replacing any existing
// one. The post must be live; reacting to a missing or soft-deleted post
// yields ErrParentNotFound.
func (s *ReactionService) React(ctx context.Context, principalID, postID ulid.ULID, status string) (*Resource, error) {
	fields := Fields{"status": status}
	if err := ValidateFields(ReactionSpec, fields, false); err != nil {
		return nil, err
	}

	if _, err := s.store.Get(ctx, KindPost, postID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("PARENT_NOT_FOUND").
				With("parent_kind", string(KindPost)).
				With("parent_id", postID.String()).
				Wrap(ErrParentNotFound)
		}
		return nil, oops.Code("PARENT_RESOLVE_FAILED").
			With("parent_id", postID.String()).
			Wrap(err)
	}

	existing, err := s.store.GetByOwnerAndParent(ctx, KindReaction, principalID, postID)
	switch {
	case err == nil:
		updated, uerr := s.store.UpdateFields(ctx, KindReaction, existing.ID, fields)
		if uerr != nil {
			return nil, oops.Code("REACTION_UPDATE_FAILED").
				With("reaction_id", existing.ID.String()).
				Wrap(uerr)
		}
		return updated, nil

	case errors.Is(err, ErrNotFound):
		now := time.Now()
		res := &Resource{
			ID:        ulid.Make(),
			Kind:      KindReaction,
			OwnerID:   principalID,
			ParentID:  &postID,
			Fields:    fields,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if ierr := s.store.Insert(ctx, res); ierr != nil {
			return nil, oops.Code("REACTION_CREATE_FAILED").
				With("post_id", postID.String()).
				Wrap(ierr)
		}
		s.logger.InfoContext(ctx, "reaction created",
			"post_id", postID.String(),
			"status", status,
		)
		return res, nil

	default:
		return nil, oops.Code("REACTION_LOOKUP_FAILED").
			With("post_id", postID.String()).
			Wrap(err)
	}
}

// ForPost returns a principal's current reaction to a post, or ErrNotFound
// when none has been recorded.
func (s *ReactionService) ForPost(ctx context.Context, principalID, postID ulid.ULID) (*Resource, error) {
	res, err := s.store.GetByOwnerAndParent(ctx, KindReaction, principalID, postID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, oops.Code("REACTION_LOOKUP_FAILED").
			With("post_id", postID.String()).
			Wrap(err)
	}
	return res, nil
}
