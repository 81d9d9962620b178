// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package social

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Authorize checks that the acting principal owns the resource.
// Pure comparison, no I/O. Every mutation in the Service goes through this
// before any store write.
func Authorize(res *Resource, principalID ulid.ULID) error {
	if res.OwnerID != principalID {
		return oops.Code("RESOURCE_NOT_OWNED").
			With("resource_id", res.ID.String()).
			With("kind", string(res.Kind)).
			Wrap(ErrUnauthorized)
	}
	return nil
}
