// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package social

import "errors"

// Sentinel errors for expected outcomes. These are ordinary return values;
// callers branch on them with errors.Is. Wrapped store faults are the only
// errors that propagate opaquely.
var (
	// ErrNotFound is returned when a requested resource does not exist
	// or has been soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrParentNotFound is returned when a resource's parent is absent or
	// soft-deleted at creation or listing time.
	ErrParentNotFound = errors.New("parent not found")

	// ErrUnauthorized is returned when the acting principal does not own
	// the resource it is trying to mutate.
	ErrUnauthorized = errors.New("unauthorized")
)
