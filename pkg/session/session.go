// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

// Package session holds the per-browser state the login flow needs to
// survive the provider redirect round trip: the pending CSRF state, the
// intended post-login redirect, and the authenticated user.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when no session exists for an ID.
var ErrSessionNotFound = errors.New("session not found")

// DefaultTTL is how long a session lives without activity.
const DefaultTTL = 30 * 24 * time.Hour

// Data is the serializable session record.
type Data struct {
	// IntendedRedirect is where the browser should land after login.
	IntendedRedirect string `json:"intended_redirect,omitempty"`

	// GenericIntended is an intended URL recorded by the host application
	// outside the login flow (e.g. a gated page that sent the user here).
	// It outranks everything else when a login begins.
	GenericIntended string `json:"generic_intended,omitempty"`

	// PendingState is the CSRF state issued at the start of a login attempt
	// and consumed on the callback. Empty when no attempt is in flight.
	PendingState string `json:"pending_state,omitempty"`

	// UserID is the authenticated local user, zero when anonymous.
	UserID int64 `json:"user_id,omitempty"`

	// Authenticated reports whether a login completed on this session.
	Authenticated bool `json:"authenticated,omitempty"`

	// UpdatedAt is bumped on every save and drives expiry.
	UpdatedAt time.Time `json:"updated_at"`
}

// Storage persists session records keyed by session ID.
type Storage interface {
	// Get retrieves a session record, or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Data, error)

	// Put stores a session record.
	Put(ctx context.Context, id string, data *Data) error

	// Delete removes a session record. Deleting a missing record is not an
	// error.
	Delete(ctx context.Context, id string) error
}
