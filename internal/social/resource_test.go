// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package social

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindSpec_Allows(t *testing.T) {
	assert.True(t, PostSpec.Allows("content"))
	assert.True(t, PostSpec.Allows("title"))
	assert.False(t, PostSpec.Allows("status"))

	assert.True(t, ExperienceSpec.Allows("start_date"))
	assert.False(t, ExperienceSpec.Allows("name"))
}

func TestKindSpec_HasParent(t *testing.T) {
	assert.False(t, PostSpec.HasParent())
	assert.False(t, ExperienceSpec.HasParent())
	assert.True(t, CommentSpec.HasParent())
	assert.True(t, ReactionSpec.HasParent())
	assert.True(t, SkillSpec.HasParent())
	assert.True(t, SkillSpec.ParentOptional)
	assert.False(t, CommentSpec.ParentOptional)
}

func TestSpecFor(t *testing.T) {
	for _, kind := range []Kind{KindPost, KindComment, KindReaction, KindSkill, KindExperience} {
		spec, ok := SpecFor(kind)
		require.True(t, ok, string(kind))
		assert.Equal(t, kind, spec.Kind)
	}

	_, ok := SpecFor(Kind("widget"))
	assert.False(t, ok)
}

func TestFields_Clone(t *testing.T) {
	orig := Fields{"content": "hello", "title": "hi"}
	clone := orig.Clone()

	clone["content"] = "changed"
	assert.Equal(t, "hello", orig["content"])
	assert.Len(t, clone, 2)
}

func TestAuthorize(t *testing.T) {
	owner := ulid.Make()
	res := &Resource{ID: ulid.Make(), Kind: KindPost, OwnerID: owner}

	require.NoError(t, Authorize(res, owner))
	require.ErrorIs(t, Authorize(res, ulid.Make()), ErrUnauthorized)
}
