// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package social

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Validation limits for resource fields.
const (
	MaxFieldLength = 4000
)

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateFields checks fields against a kind descriptor.
// With partial=false (create) all required fields must be present and
// non-empty; with partial=true (update) only the fields present are checked.
// Unknown fields are rejected in both modes.
func ValidateFields(spec KindSpec, fields Fields, partial bool) error {
	for name := range fields {
		if !spec.Allows(name) {
			return &ValidationError{Field: name, Message: "unknown field"}
		}
	}

	if !partial {
		for _, name := range spec.Required {
			if isEmptyValue(fields[name]) {
				return &ValidationError{Field: name, Message: "is required"}
			}
		}
	} else {
		// A partial update may not blank out a required field.
		for _, name := range spec.Required {
			if v, ok := fields[name]; ok && isEmptyValue(v) {
				return &ValidationError{Field: name, Message: "cannot be empty"}
			}
		}
	}

	for name, v := range fields {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if !utf8.ValidString(s) {
			return &ValidationError{Field: name, Message: "must be valid UTF-8"}
		}
		if len(s) > MaxFieldLength {
			return &ValidationError{Field: name, Message: fmt.Sprintf("exceeds maximum length of %d", MaxFieldLength)}
		}
	}

	if spec.Check != nil {
		return spec.Check(fields)
	}
	return nil
}

// checkReactionStatus ensures the reaction status is one of the known values.
func checkReactionStatus(fields Fields) error {
	v, ok := fields["status"]
	if !ok {
		return nil
	}
	switch v {
	case ReactionLike, ReactionDislike, ReactionNeutral:
		return nil
	default:
		return &ValidationError{Field: "status", Message: "must be Like, Dislike, or Neutral"}
	}
}

// checkExperienceDates ensures start_date/end_date, when present, are
// RFC 3339 dates with end not before start.
func checkExperienceDates(fields Fields) error {
	start, err := parseDateField(fields, "start_date")
	if err != nil {
		return err
	}
	end, err := parseDateField(fields, "end_date")
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return &ValidationError{Field: "end_date", Message: "cannot be before start_date"}
	}
	return nil
}

func parseDateField(fields Fields, name string) (*time.Time, error) {
	v, ok := fields[name]
	if !ok || v == "" {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, &ValidationError{Field: name, Message: "must be a string date"}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// Accept a bare date too.
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil, &ValidationError{Field: name, Message: "must be an RFC 3339 date"}
		}
	}
	return &t, nil
}

// isEmptyValue reports whether a field value counts as absent.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}
