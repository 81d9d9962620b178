// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package social

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReactionService(t *testing.T, store ResourceStore) *ReactionService {
	t.Helper()
	svc, err := NewReactionService(store, nil)
	require.NoError(t, err)
	return svc
}

func TestReact_FirstReactionInserts(t *testing.T) {
	store := new(MockResourceStore)
	svc := newReactionService(t, store)
	principal := ulid.Make()
	postID := ulid.Make()

	post := &Resource{ID: postID, Kind: KindPost}
	store.On("Get", mock.Anything, KindPost, postID).Return(post, nil)
	store.On("GetByOwnerAndParent", mock.Anything, KindReaction, principal, postID).Return(nil, ErrNotFound)
	store.On("Insert", mock.Anything, mock.MatchedBy(func(r *Resource) bool {
		return r.Kind == KindReaction && r.OwnerID == principal &&
			r.ParentID != nil && *r.ParentID == postID && r.Fields["status"] == ReactionLike
	})).Return(nil)

	res, err := svc.React(context.Background(), principal, postID, ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, ReactionLike, res.Fields["status"])
	store.AssertExpectations(t)
}

func TestReact_SecondReactionReplaces(t *testing.T) {
	store := new(MockResourceStore)
	svc := newReactionService(t, store)
	principal := ulid.Make()
	postID := ulid.Make()

	post := &Resource{ID: postID, Kind: KindPost}
	existing := &Resource{ID: ulid.Make(), Kind: KindReaction, OwnerID: principal,
		ParentID: &postID, Fields: Fields{"status": ReactionLike}}
	updated := &Resource{ID: existing.ID, Kind: KindReaction, OwnerID: principal,
		ParentID: &postID, Fields: Fields{"status": ReactionDislike}}

	store.On("Get", mock.Anything, KindPost, postID).Return(post, nil)
	store.On("GetByOwnerAndParent", mock.Anything, KindReaction, principal, postID).Return(existing, nil)
	store.On("UpdateFields", mock.Anything, KindReaction, existing.ID, Fields{"status": ReactionDislike}).
		Return(updated, nil)

	res, err := svc.React(context.Background(), principal, postID, ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, res.ID, "upsert keeps the same row")
	assert.Equal(t, ReactionDislike, res.Fields["status"])
	store.AssertNotCalled(t, "Insert")
}

func TestReact_NeutralKeepsRow(t *testing.T) {
	store := new(MockResourceStore)
	svc := newReactionService(t, store)
	principal := ulid.Make()
	postID := ulid.Make()

	post := &Resource{ID: postID, Kind: KindPost}
	existing := &Resource{ID: ulid.Make(), Kind: KindReaction, OwnerID: principal,
		ParentID: &postID, Fields: Fields{"status": ReactionLike}}
	neutral := &Resource{ID: existing.ID, Kind: KindReaction, OwnerID: principal,
		ParentID: &postID, Fields: Fields{"status": ReactionNeutral}}

	store.On("Get", mock.Anything, KindPost, postID).Return(post, nil)
	store.On("GetByOwnerAndParent", mock.Anything, KindReaction, principal, postID).Return(existing, nil)
	store.On("UpdateFields", mock.Anything, KindReaction, existing.ID, Fields{"status": ReactionNeutral}).
		Return(neutral, nil)

	res, err := svc.React(context.Background(), principal, postID, ReactionNeutral)
	require.NoError(t, err)
	assert.False(t, res.Deleted, "neutral is a state, not a delete")
	store.AssertNotCalled(t, "MarkDeleted")
}

func TestReact_InvalidStatus(t *testing.T) {
	store := new(MockResourceStore)
	svc := newReactionService(t, store)

	_, err := svc.React(context.Background(), ulid.Make(), ulid.Make(), "Love")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
	store.AssertNotCalled(t, "Get")
}

func TestReact_DeletedPost(t *testing.T) {
	store := new(MockResourceStore)
	svc := newReactionService(t, store)
	postID := ulid.Make()

	store.On("Get", mock.Anything, KindPost, postID).Return(nil, ErrNotFound)

	_, err := svc.React(context.Background(), ulid.Make(), postID, ReactionLike)
	require.ErrorIs(t, err, ErrParentNotFound)
	store.AssertNotCalled(t, "Insert")
	store.AssertNotCalled(t, "GetByOwnerAndParent")
}

func TestForPost(t *testing.T) {
	principal := ulid.Make()
	postID := ulid.Make()

	t.Run("returns the recorded reaction", func(t *testing.T) {
		store := new(MockResourceStore)
		svc := newReactionService(t, store)

		existing := &Resource{ID: ulid.Make(), Kind: KindReaction, OwnerID: principal,
			ParentID: &postID, Fields: Fields{"status": ReactionLike}}
		store.On("GetByOwnerAndParent", mock.Anything, KindReaction, principal, postID).Return(existing, nil)

		res, err := svc.ForPost(context.Background(), principal, postID)
		require.NoError(t, err)
		assert.Equal(t, ReactionLike, res.Fields["status"])
	})

	t.Run("none recorded", func(t *testing.T) {
		store := new(MockResourceStore)
		svc := newReactionService(t, store)

		store.On("GetByOwnerAndParent", mock.Anything, KindReaction, principal, postID).Return(nil, ErrNotFound)

		_, err := svc.ForPost(context.Background(), principal, postID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}
