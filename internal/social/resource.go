// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

// Package social provides the owned-resource model shared by posts,
// comments, reactions, skills, and experience records: one generic service
// with per-kind descriptors instead of one hand-written service per kind.
package social

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind discriminates resource kinds within the shared resource collection.
type Kind string

// Resource kinds.
const (
	KindPost       Kind = "post"
	KindComment    Kind = "comment"
	KindReaction   Kind = "reaction"
	KindSkill      Kind = "skill"
	KindExperience Kind = "experience"
)

// Fields holds a resource's kind-specific attributes as a flat document.
type Fields map[string]any

// Clone returns a shallow copy of the fields.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Resource is any persisted entity carrying an owner reference and a
// soft-delete flag. Kind-specific attributes live in Fields.
type Resource struct {
	ID        ulid.ULID
	Kind      Kind
	OwnerID   ulid.ULID
	ParentID  *ulid.ULID
	Fields    Fields
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reaction status values.
const (
	ReactionLike    = "Like"
	ReactionDislike = "Dislike"
	ReactionNeutral = "Neutral"
)

// KindSpec is the per-kind configuration consumed by the generic Service.
type KindSpec struct {
	// Kind names the resource kind.
	Kind Kind

	// Parent is the kind of the required parent resource, or empty when
	// the kind has no parent relation.
	Parent Kind

	// ParentOptional marks the parent reference as allowed but not required.
	ParentOptional bool

	// Required lists field names that must be present and non-empty on create.
	Required []string

	// Optional lists additional accepted field names.
	Optional []string

	// Check, when set, applies kind-specific field validation beyond
	// presence checks. It receives only the fields present in the input.
	Check func(Fields) error
}

// Allows reports whether the descriptor accepts a field name.
func (s KindSpec) Allows(name string) bool {
	for _, f := range s.Required {
		if f == name {
			return true
		}
	}
	for _, f := range s.Optional {
		if f == name {
			return true
		}
	}
	return false
}

// HasParent reports whether the kind declares a parent relation.
func (s KindSpec) HasParent() bool {
	return s.Parent != ""
}

// Kind descriptors, one per resource kind.
var (
	PostSpec = KindSpec{
		Kind:     KindPost,
		Required: []string{"content"},
		Optional: []string{"title"},
	}

	CommentSpec = KindSpec{
		Kind:     KindComment,
		Parent:   KindPost,
		Required: []string{"text"},
	}

	ReactionSpec = KindSpec{
		Kind:     KindReaction,
		Parent:   KindPost,
		Required: []string{"status"},
		Check:    checkReactionStatus,
	}

	SkillSpec = KindSpec{
		Kind:           KindSkill,
		Parent:         KindExperience,
		ParentOptional: true,
		Required:       []string{"name"},
	}

	ExperienceSpec = KindSpec{
		Kind:     KindExperience,
		Required: []string{"title", "company"},
		Optional: []string{"description", "start_date", "end_date"},
		Check:    checkExperienceDates,
	}
)

// SpecFor returns the descriptor for a kind.
func SpecFor(kind Kind) (KindSpec, bool) {
	switch kind {
	case KindPost:
		return PostSpec, true
	case KindComment:
		return CommentSpec, true
	case KindReaction:
		return ReactionSpec, true
	case KindSkill:
		return SkillSpec, true
	case KindExperience:
		return ExperienceSpec, true
	default:
		return KindSpec{}, false
	}
}
