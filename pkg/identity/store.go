// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned by store lookups that match no user.
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicate is returned when a create or update would violate the
// external-ID, email, or username uniqueness invariants. The storage layer
// is the contract-holder for these invariants; concurrent callbacks for the
// same identity race between lookup and create, and the unique indexes are
// what turns that race into a clean failure instead of a duplicate row.
var ErrDuplicate = errors.New("user already exists")

// Store is the persistent user store consumed by the reconciliation engine.
// Create and Update deliberately bypass field-level validation: claims that
// reached the engine came from a completed code exchange and are trusted as
// already valid.
type Store interface {
	// GetByExternalID looks a user up by linked Auth0 subject.
	GetByExternalID(ctx context.Context, externalID string) (*User, error)

	// GetByEmail looks a user up by email, case-insensitively.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByUsername looks a user up by exact username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Create persists a new user and fills in its ID.
	Create(ctx context.Context, user *User) error

	// Update persists changes to an existing user.
	Update(ctx context.Context, user *User) error

	// GroupExists reports whether a user group exists.
	GroupExists(ctx context.Context, groupID int64) (bool, error)

	// AttachToGroup adds the user to a group's membership collection.
	AttachToGroup(ctx context.Context, userID, groupID int64) error
}
