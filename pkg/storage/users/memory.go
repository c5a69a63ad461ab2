// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

// Package users provides the persistent user store backing the
// reconciliation engine, with a SQLite implementation for real deployments
// and an in-memory implementation for tests and ephemeral runs. Both enforce
// the external-ID, email, and username uniqueness invariants at the storage
// level.
package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/albrightlabs/auth0bridge/pkg/identity"
)

// MemoryStore is an in-memory identity.Store.
type MemoryStore struct {
	mu          sync.RWMutex
	nextUserID  int64
	nextGroupID int64
	users       map[int64]*identity.User
	groups      map[int64]string
	memberships map[int64]map[int64]bool // groupID -> userID set
}

var _ identity.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[int64]*identity.User),
		groups:      make(map[int64]string),
		memberships: make(map[int64]map[int64]bool),
	}
}

// GetByExternalID looks a user up by linked Auth0 subject.
func (s *MemoryStore) GetByExternalID(_ context.Context, externalID string) (*identity.User, error) {
	if externalID == "" {
		return nil, identity.ErrUserNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ExternalID == externalID {
			return cloneUser(u), nil
		}
	}
	return nil, identity.ErrUserNotFound
}

// GetByEmail looks a user up by email, case-insensitively.
func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	if email == "" {
		return nil, identity.ErrUserNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, identity.ErrUserNotFound
}

// GetByUsername looks a user up by exact username.
func (s *MemoryStore) GetByUsername(_ context.Context, username string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, identity.ErrUserNotFound
}

// Create persists a new user, enforcing the uniqueness invariants.
func (s *MemoryStore) Create(_ context.Context, user *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if user.ExternalID != "" && u.ExternalID == user.ExternalID {
			return identity.ErrDuplicate
		}
		if strings.EqualFold(u.Email, user.Email) {
			return identity.ErrDuplicate
		}
		if u.Username == user.Username {
			return identity.ErrDuplicate
		}
	}

	s.nextUserID++
	user.ID = s.nextUserID
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = cloneUser(user)
	return nil
}

// Update persists changes to an existing user.
func (s *MemoryStore) Update(_ context.Context, user *identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return identity.ErrUserNotFound
	}

	for id, u := range s.users {
		if id == user.ID {
			continue
		}
		if user.ExternalID != "" && u.ExternalID == user.ExternalID {
			return identity.ErrDuplicate
		}
	}

	user.UpdatedAt = time.Now()
	s.users[user.ID] = cloneUser(user)
	return nil
}

// GroupExists reports whether a group exists.
func (s *MemoryStore) GroupExists(_ context.Context, groupID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.groups[groupID]
	return ok, nil
}

// AttachToGroup adds a user to a group's membership collection.
func (s *MemoryStore) AttachToGroup(_ context.Context, userID, groupID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return identity.ErrUserNotFound
	}
	if s.memberships[groupID] == nil {
		s.memberships[groupID] = make(map[int64]bool)
	}
	s.memberships[groupID][userID] = true
	return nil
}

// CreateGroup adds a user group and returns its ID.
func (s *MemoryStore) CreateGroup(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGroupID++
	s.groups[s.nextGroupID] = name
	return s.nextGroupID, nil
}

// IsMember reports whether a user belongs to a group. Test helper.
func (s *MemoryStore) IsMember(_ context.Context, userID, groupID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.memberships[groupID][userID]
}

// Count returns the number of stored users. Test helper.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users)
}

func cloneUser(u *identity.User) *identity.User {
	out := *u
	if u.ActivatedAt != nil {
		t := *u.ActivatedAt
		out.ActivatedAt = &t
	}
	return &out
}
