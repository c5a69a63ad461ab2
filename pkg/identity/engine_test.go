// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albrightlabs/auth0bridge/pkg/auth0"
	"github.com/albrightlabs/auth0bridge/pkg/events"
	"github.com/albrightlabs/auth0bridge/pkg/identity"
	"github.com/albrightlabs/auth0bridge/pkg/storage/users"
)

func testClaims() *auth0.Claims {
	return &auth0.Claims{
		Subject:     "auth0|abc123",
		Email:       "alice@example.com",
		Name:        "Alice Cooper",
		AvatarURL:   "https://cdn.example.com/alice.png",
		AccessToken: "at-1",
		IDToken:     "idt-1",
	}
}

func TestResolveProvisionsNewUser(t *testing.T) {
	t.Parallel()

	store := users.NewMemoryStore()
	sink := &events.CollectorSink{}
	engine := identity.NewEngine(store, sink)

	policy := identity.Policy{AutoCreateUsers: true, SyncUserData: true}

	user, err := engine.Resolve(context.Background(), testClaims(), policy, "203.0.113.9")
	require.NoError(t, err)

	assert.Equal(t, "auth0|abc123", user.ExternalID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice", user.FirstName)
	assert.Equal(t, "Cooper", user.LastName)
	assert.Equal(t, "https://cdn.example.com/alice.png", user.AvatarURL)
	assert.Equal(t, "203.0.113.9", user.CreatedIP)
	assert.Equal(t, "203.0.113.9", user.LastIP)
	assert.NotEmpty(t, user.Password)
	assert.True(t, user.Activated())

	assert.Contains(t, sink.Names(), events.UserCreated)
	assert.Equal(t, 1, store.Count())
}

func TestResolveIsIdempotentBySubject(t *testing.T) {
	t.Parallel()

	store := users.NewMemoryStore()
	engine := identity.NewEngine(store, events.NopSink{})

	policy := identity.Policy{AutoCreateUsers: true, SyncUserData: true}
	ctx := context.Background()

	first, err := engine.Resolve(ctx, testClaims(), policy, "203.0.113.9")
	require.NoError(t, err)

	second, err := engine.Resolve(ctx, testClaims(), policy, "203.0.113.10")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.Count())
	assert.Equal(t, "203.0.113.10", second.LastIP)
}

func TestResolveUsernameCollision(t *testing.T) {
	t.Parallel()

	store := users.NewMemoryStore()
	engine := identity.NewEngine(store, events.NopSink{})

	policy := identity.Policy{AutoCreateUsers: true}
	ctx := context.Background()

	existing := &identity.User{
		ExternalID: "auth0|other",
		Email:      "alice@other.example",
		Username:   "alice",
		FirstName:  "Alice",
	}
	require.NoError(t, store.Create(ctx, existing))

	user, err := engine.Resolve(ctx, testClaims(), policy, "")
	require.NoError(t, err)
	assert.Equal(t, "alice1", user.Username)
}

func TestResolveLinksByEmail(t *testing.T) {
	t.Parallel()

	store := users.NewMemoryStore()
	sink := &events.CollectorSink{}
	engine := identity.NewEngine(store, sink)

	ctx := context.Background()
	existing := &identity.User{
		Email:     "ALICE@example.com",
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Local",
	}
	require.NoError(t, store.Create(ctx, existing))

	// Auto-creation off: linking an existing account must still work.
	policy := identity.Policy{AutoCreateUsers: false, SyncUserData: true}

	user, err := engine.Resolve(ctx, testClaims(), policy, "198.51.100.4")
	require.NoError(t, err)

	assert.Equal(t, existing.ID, user.ID)
	assert.Equal(t, "auth0|abc123", user.ExternalID)
	assert.Equal(t, "at-1", user.AccessToken)
	assert.Equal(t, "Local", user.LastName, "existing last name must not be overwritten")
	assert.Contains(t, sink.Names(), events.UserUpdated)
	assert.Equal(t, 1, store.Count())
}

func TestResolveProvisioningDisabled(t *testing.T) {
	t.Parallel()

	store := users.NewMemoryStore()
	engine := identity.NewEngine(store, events.NopSink{})

	policy := identity.Policy{AutoCreateUsers: false}

	_, err := engine.Resolve(context.Background(), testClaims(), policy, "")
	require.ErrorIs(t, err, identity.ErrProvisioningDisabled)
	assert.Equal(t, 0, store.Count())
}

func TestResolveSyncRules(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("sentinel first name is replaced", func(t *testing.T) {
		t.Parallel()

		store := users.NewMemoryStore()
		engine := identity.NewEngine(store, events.NopSink{})

		existing := &identity.User{
			ExternalID: "auth0|abc123",
			Email:      "alice@example.com",
			Username:   "alice",
			FirstName:  identity.SentinelFirstName,
		}
		require.NoError(t, store.Create(ctx, existing))

		policy := identity.Policy{SyncUserData: true}
		user, err := engine.Resolve(ctx, testClaims(), policy, "")
		require.NoError(t, err)
		assert.Equal(t, "Alice", user.FirstName)
		assert.Equal(t, "Cooper", user.LastName)
	})

	t.Run("real first name is kept", func(t *testing.T) {
		t.Parallel()

		store := users.NewMemoryStore()
		engine := identity.NewEngine(store, events.NopSink{})

		existing := &identity.User{
			ExternalID: "auth0|abc123",
			Email:      "alice@example.com",
			Username:   "alice",
			FirstName:  "Alicia",
			AvatarURL:  "https://cdn.example.com/custom.png",
		}
		require.NoError(t, store.Create(ctx, existing))

		policy := identity.Policy{SyncUserData: true}
		user, err := engine.Resolve(ctx, testClaims(), policy, "")
		require.NoError(t, err)
		assert.Equal(t, "Alicia", user.FirstName)
		assert.Equal(t, "https://cdn.example.com/custom.png", user.AvatarURL)
	})

	t.Run("sync disabled leaves profile untouched", func(t *testing.T) {
		t.Parallel()

		store := users.NewMemoryStore()
		engine := identity.NewEngine(store, events.NopSink{})

		existing := &identity.User{
			ExternalID: "auth0|abc123",
			Email:      "alice@example.com",
			Username:   "alice",
			FirstName:  identity.SentinelFirstName,
		}
		require.NoError(t, store.Create(ctx, existing))

		policy := identity.Policy{SyncUserData: false}
		user, err := engine.Resolve(ctx, testClaims(), policy, "")
		require.NoError(t, err)
		assert.Equal(t, identity.SentinelFirstName, user.FirstName)
	})
}

func TestResolveActivatesOnLogin(t *testing.T) {
	t.Parallel()

	store := users.NewMemoryStore()
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := identity.NewEngine(store, events.NopSink{},
		identity.WithClock(func() time.Time { return fixed }),
	)

	ctx := context.Background()
	existing := &identity.User{
		ExternalID: "auth0|abc123",
		Email:      "alice@example.com",
		Username:   "alice",
		FirstName:  "Alice",
	}
	require.NoError(t, store.Create(ctx, existing))
	require.False(t, existing.Activated())

	user, err := engine.Resolve(ctx, testClaims(), identity.Policy{SyncUserData: true}, "")
	require.NoError(t, err)
	require.True(t, user.Activated())
	assert.Equal(t, fixed, *user.ActivatedAt)
}

func TestResolveAttachesDefaultGroup(t *testing.T) {
	t.Parallel()

	store := users.NewMemoryStore()
	engine := identity.NewEngine(store, events.NopSink{})

	ctx := context.Background()
	groupID, err := store.CreateGroup(ctx, "members")
	require.NoError(t, err)

	policy := identity.Policy{AutoCreateUsers: true, DefaultGroupID: groupID}
	user, err := engine.Resolve(ctx, testClaims(), policy, "")
	require.NoError(t, err)

	assert.Equal(t, groupID, user.PrimaryGroupID)
	assert.True(t, store.IsMember(ctx, user.ID, groupID))
}

func TestResolveMissingGroupIsSkipped(t *testing.T) {
	t.Parallel()

	store := users.NewMemoryStore()
	engine := identity.NewEngine(store, events.NopSink{})

	policy := identity.Policy{AutoCreateUsers: true, DefaultGroupID: 42}
	user, err := engine.Resolve(context.Background(), testClaims(), policy, "")
	require.NoError(t, err)
	assert.Zero(t, user.PrimaryGroupID)
}

func TestResolveRunsHooks(t *testing.T) {
	t.Parallel()

	store := users.NewMemoryStore()

	var hooked *identity.User
	engine := identity.NewEngine(store, events.NopSink{},
		identity.WithHook(func(_ context.Context, user *identity.User, _ *auth0.Claims) {
			hooked = user
		}),
	)

	user, err := engine.Resolve(context.Background(), testClaims(), identity.Policy{AutoCreateUsers: true}, "")
	require.NoError(t, err)
	require.NotNil(t, hooked)
	assert.Equal(t, user.ID, hooked.ID)
}
