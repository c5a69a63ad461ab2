// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/albrightlabs/auth0bridge/pkg/auth0"
	"github.com/albrightlabs/auth0bridge/pkg/events"
	"github.com/albrightlabs/auth0bridge/pkg/logger"
)

// ErrProvisioningDisabled is returned when claims match no local user and
// the policy forbids creating one.
var ErrProvisioningDisabled = errors.New("user does not exist and auto-creation is disabled")

// Hook is a post-reconciliation callback. Hooks run in registration order
// after the user record has been persisted; a hook error is logged but does
// not fail the login.
type Hook func(ctx context.Context, user *User, claims *auth0.Claims)

// Engine maps provider claims onto local user records.
type Engine struct {
	store  Store
	events events.Sink
	hooks  []Hook
	now    func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithHook appends a post-reconciliation hook.
func WithHook(h Hook) EngineOption {
	return func(e *Engine) {
		e.hooks = append(e.hooks, h)
	}
}

// WithClock overrides the engine clock. Intended for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a reconciliation engine over the given store and
// notification sink.
func NewEngine(store Store, sink events.Sink, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  store,
		events: sink,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve finds, links, updates, or creates the local user for the given
// claims. The steps are ordered and the first match wins:
//
//  1. lookup by external ID; sync profile data when the policy allows
//  2. lookup by email; link the account to the Auth0 subject
//  3. refuse when auto-creation is disabled
//  4. provision a new user
//
// Persistence failures are fatal to the request and are not retried.
func (e *Engine) Resolve(ctx context.Context, claims *auth0.Claims, policy Policy, clientIP string) (*User, error) {
	user, err := e.store.GetByExternalID(ctx, claims.Subject)
	switch {
	case err == nil:
		if policy.SyncUserData {
			if err := e.update(ctx, user, claims, policy, clientIP); err != nil {
				return nil, err
			}
		}
		e.runHooks(ctx, user, claims)
		return user, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("external ID lookup: %w", err)
	}

	user, err = e.store.GetByEmail(ctx, claims.Email)
	switch {
	case err == nil:
		// Existing local account with a matching email: link it to Auth0.
		if err := e.update(ctx, user, claims, policy, clientIP); err != nil {
			return nil, err
		}
		e.runHooks(ctx, user, claims)
		return user, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("email lookup: %w", err)
	}

	if !policy.AutoCreateUsers {
		return nil, ErrProvisioningDisabled
	}

	user, err = e.create(ctx, claims, policy, clientIP)
	if err != nil {
		return nil, err
	}
	e.runHooks(ctx, user, claims)
	return user, nil
}

// create provisions a new local user from claims.
func (e *Engine) create(ctx context.Context, claims *auth0.Claims, policy Policy, clientIP string) (*User, error) {
	firstName, lastName := DeriveName(claims)
	if firstName == "" {
		firstName = SentinelFirstName
	}

	username, err := e.generateUsername(ctx, claims.Email)
	if err != nil {
		return nil, err
	}

	now := e.now()
	user := &User{
		ExternalID:   claims.Subject,
		Email:        claims.Email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		Password:     randomPassword(),
		AccessToken:  claims.AccessToken,
		RefreshToken: claims.RefreshToken,
		IDToken:      claims.IDToken,
		AvatarURL:    claims.AvatarURL,
		// Auth0 users arrive pre-verified.
		ActivatedAt: &now,
		CreatedIP:   clientIP,
		LastIP:      clientIP,
	}

	groupID := int64(0)
	if policy.DefaultGroupID != 0 {
		exists, err := e.store.GroupExists(ctx, policy.DefaultGroupID)
		if err != nil {
			return nil, fmt.Errorf("default group lookup: %w", err)
		}
		if exists {
			groupID = policy.DefaultGroupID
			user.PrimaryGroupID = groupID
		}
	}

	if err := e.store.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if groupID != 0 {
		if err := e.store.AttachToGroup(ctx, user.ID, groupID); err != nil {
			return nil, fmt.Errorf("attach user to group: %w", err)
		}
	}

	logger.Infow("provisioned user from auth0 claims",
		"user_id", user.ID,
		"subject", claims.Subject,
		"username", user.Username,
	)

	e.events.Publish(events.Event{
		Name: events.UserCreated,
		Payload: map[string]any{
			"user_id": user.ID,
			"subject": claims.Subject,
		},
	})

	return user, nil
}

// update refreshes an existing user from claims. The link fields (external
// ID, tokens, last IP) are always refreshed; profile fields are only filled
// when the policy allows and the current value is empty or the sentinel.
func (e *Engine) update(ctx context.Context, user *User, claims *auth0.Claims, policy Policy, clientIP string) error {
	user.ExternalID = claims.Subject
	user.AccessToken = claims.AccessToken
	user.RefreshToken = claims.RefreshToken
	user.IDToken = claims.IDToken
	user.LastIP = clientIP

	if policy.SyncUserData {
		if user.AvatarURL == "" {
			user.AvatarURL = claims.AvatarURL
		}

		if user.FirstName == "" || user.FirstName == SentinelFirstName || user.LastName == "" {
			firstName, lastName := DeriveName(claims)
			if firstName != "" && firstName != SentinelFirstName &&
				(user.FirstName == "" || user.FirstName == SentinelFirstName) {
				user.FirstName = firstName
			}
			if lastName != "" && user.LastName == "" {
				user.LastName = lastName
			}
		}
	}

	if !user.Activated() {
		now := e.now()
		user.ActivatedAt = &now
	}

	if err := e.store.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	e.events.Publish(events.Event{
		Name: events.UserUpdated,
		Payload: map[string]any{
			"user_id": user.ID,
			"subject": claims.Subject,
		},
	})

	return nil
}

// generateUsername derives a unique username from the email local-part by
// appending an incrementing suffix until no collision exists (alice, alice1,
// alice2, ...).
func (e *Engine) generateUsername(ctx context.Context, email string) (string, error) {
	base := emailLocalPart(email)
	candidate := base

	for counter := 1; ; counter++ {
		_, err := e.store.GetByUsername(ctx, candidate)
		if errors.Is(err, ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("username lookup: %w", err)
		}
		candidate = base + strconv.Itoa(counter)
	}
}

func (e *Engine) runHooks(ctx context.Context, user *User, claims *auth0.Claims) {
	for _, h := range e.hooks {
		h(ctx, user, claims)
	}
}

// randomPassword returns a random unusable password. Auth0-provisioned
// accounts never log in with it.
func randomPassword() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
