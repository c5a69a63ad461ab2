// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LocalStorage implements the Storage interface using an in-memory sync.Map.
// This is the default storage backend for single-instance deployments.
type LocalStorage struct {
	sessions sync.Map
}

var _ Storage = (*LocalStorage)(nil)

// NewLocalStorage creates a new local in-memory storage backend.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{}
}

// Get retrieves a session record from local storage.
func (s *LocalStorage) Get(_ context.Context, id string) (*Data, error) {
	if id == "" {
		return nil, fmt.Errorf("cannot load session with empty ID")
	}

	val, ok := s.sessions.Load(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	data, ok := val.(*Data)
	if !ok {
		return nil, fmt.Errorf("invalid session type in storage")
	}

	out := *data
	return &out, nil
}

// Put stores a session record.
func (s *LocalStorage) Put(_ context.Context, id string, data *Data) error {
	if id == "" {
		return fmt.Errorf("cannot store session with empty ID")
	}
	if data == nil {
		return fmt.Errorf("cannot store nil session")
	}

	stored := *data
	s.sessions.Store(id, &stored)
	return nil
}

// Delete removes a session record.
func (s *LocalStorage) Delete(_ context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("cannot delete session with empty ID")
	}

	s.sessions.Delete(id)
	return nil
}

// DeleteExpired removes all sessions that haven't been updated since the
// given time.
func (s *LocalStorage) DeleteExpired(ctx context.Context, before time.Time) error {
	var toDelete []string

	s.sessions.Range(func(key, val any) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if data, ok := val.(*Data); ok {
			if data.UpdatedAt.Before(before) {
				if id, ok := key.(string); ok {
					toDelete = append(toDelete, id)
				}
			}
		}
		return true
	})

	for _, id := range toDelete {
		s.sessions.Delete(id)
	}

	return nil
}

// Count returns the number of sessions in storage. Test helper.
func (s *LocalStorage) Count() int {
	count := 0
	s.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}
