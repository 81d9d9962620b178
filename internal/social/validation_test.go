// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package social

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFields_Create(t *testing.T) {
	tests := []struct {
		name      string
		spec      KindSpec
		fields    Fields
		wantField string
	}{
		{
			name:   "valid post",
			spec:   PostSpec,
			fields: Fields{"content": "hello", "title": "greeting"},
		},
		{
			name:      "unknown field rejected",
			spec:      PostSpec,
			fields:    Fields{"content": "hello", "color": "red"},
			wantField: "color",
		},
		{
			name:      "missing required field",
			spec:      PostSpec,
			fields:    Fields{"title": "no body"},
			wantField: "content",
		},
		{
			name:      "empty required field",
			spec:      PostSpec,
			fields:    Fields{"content": ""},
			wantField: "content",
		},
		{
			name:      "nil required field",
			spec:      PostSpec,
			fields:    Fields{"content": nil},
			wantField: "content",
		},
		{
			name:      "over-length string",
			spec:      PostSpec,
			fields:    Fields{"content": strings.Repeat("a", MaxFieldLength+1)},
			wantField: "content",
		},
		{
			name:      "invalid UTF-8",
			spec:      PostSpec,
			fields:    Fields{"content": string([]byte{0xff, 0xfe})},
			wantField: "content",
		},
		{
			name:   "string at exactly the limit",
			spec:   PostSpec,
			fields: Fields{"content": strings.Repeat("a", MaxFieldLength)},
		},
		{
			name:   "valid experience",
			spec:   ExperienceSpec,
			fields: Fields{"title": "Engineer", "company": "Acme", "start_date": "2020-01-02", "end_date": "2022-06-30"},
		},
		{
			name:      "experience end before start",
			spec:      ExperienceSpec,
			fields:    Fields{"title": "Engineer", "company": "Acme", "start_date": "2022-01-02", "end_date": "2020-06-30"},
			wantField: "end_date",
		},
		{
			name:      "experience unparseable date",
			spec:      ExperienceSpec,
			fields:    Fields{"title": "Engineer", "company": "Acme", "start_date": "January 2020"},
			wantField: "start_date",
		},
		{
			name:   "experience RFC 3339 timestamp accepted",
			spec:   ExperienceSpec,
			fields: Fields{"title": "Engineer", "company": "Acme", "start_date": "2020-01-02T15:04:05Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFields(tt.spec, tt.fields, false)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidateFields_Partial(t *testing.T) {
	t.Run("absent required field is fine", func(t *testing.T) {
		err := ValidateFields(PostSpec, Fields{"title": "retitled"}, true)
		require.NoError(t, err)
	})

	t.Run("blanking a required field is not", func(t *testing.T) {
		err := ValidateFields(PostSpec, Fields{"content": ""}, true)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "content", verr.Field)
	})

	t.Run("unknown field still rejected", func(t *testing.T) {
		err := ValidateFields(PostSpec, Fields{"color": "red"}, true)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "color", verr.Field)
	})
}

func TestReactionStatusValues(t *testing.T) {
	for _, status := range []string{ReactionLike, ReactionDislike, ReactionNeutral} {
		require.NoError(t, ValidateFields(ReactionSpec, Fields{"status": status}, false), status)
	}

	err := ValidateFields(ReactionSpec, Fields{"status": "like"}, false)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr, "status values are case-sensitive")
}
