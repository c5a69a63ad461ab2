// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

// Package identity reconciles Auth0-asserted claims against the local user
// store: match by external ID, fall back to match by email, otherwise
// provision a new account.
package identity

import "time"

// SentinelFirstName is the literal placeholder first name meaning "no real
// name known yet". Downstream systems key off this exact value, so it must
// not change.
const SentinelFirstName = "User"

// User is the local identity record.
type User struct {
	// ID is the stable local key.
	ID int64

	// ExternalID is the Auth0 subject this user is linked to. Empty when the
	// user has never logged in through Auth0. Unique when present.
	ExternalID string

	// Email uniquely identifies the user. Compared case-insensitively.
	Email string

	// Username is generated from the email local-part on provisioning.
	Username string

	// FirstName and LastName come from the name derivation chain.
	FirstName string
	LastName  string

	// Password is a random unusable value; Auth0-provisioned accounts never
	// authenticate with a local password.
	Password string

	// AccessToken, RefreshToken, and IDToken are opaque secrets copied from
	// the most recent callback. Never parsed for trust decisions.
	AccessToken  string
	RefreshToken string
	IDToken      string

	// AvatarURL is the social avatar, filled once and then left alone.
	AvatarURL string

	// ActivatedAt is when the account was activated. Auth0 accounts are
	// pre-verified so this is set on creation.
	ActivatedAt *time.Time

	// PrimaryGroupID is the user's primary group, when one was assigned.
	PrimaryGroupID int64

	// CreatedIP and LastIP record the client address at creation and at the
	// most recent login.
	CreatedIP string
	LastIP    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Activated reports whether the account has been activated.
func (u *User) Activated() bool {
	return u.ActivatedAt != nil && !u.ActivatedAt.IsZero()
}

// Policy carries the reconciliation feature flags for one resolve call.
type Policy struct {
	// AutoCreateUsers allows provisioning accounts for unseen identities.
	AutoCreateUsers bool

	// SyncUserData enables best-effort profile sync on every callback.
	SyncUserData bool

	// DefaultGroupID is assigned as the primary group of new users when the
	// group exists. Zero disables group assignment.
	DefaultGroupID int64
}
