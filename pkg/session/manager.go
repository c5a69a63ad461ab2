// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultCookieName is the session cookie name.
const DefaultCookieName = "auth0bridge_session"

// Manager binds sessions to browsers through an HttpOnly cookie.
type Manager struct {
	storage       Storage
	cookieName    string
	ttl           time.Duration
	secureCookies bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) ManagerOption {
	return func(m *Manager) {
		m.cookieName = name
	}
}

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithSecureCookies marks the session cookie Secure. Enable whenever the
// bridge is served over HTTPS.
func WithSecureCookies(secure bool) ManagerOption {
	return func(m *Manager) {
		m.secureCookies = secure
	}
}

// NewManager creates a session manager over the given storage backend.
func NewManager(storage Storage, opts ...ManagerOption) *Manager {
	m := &Manager{
		storage:    storage,
		cookieName: DefaultCookieName,
		ttl:        DefaultTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session is one browser's session, loaded for the duration of a request.
// Mutations are applied in memory and persisted by Save.
type Session struct {
	manager *Manager
	id      string
	data    *Data
}

// Session loads the session for the request, creating it (and setting the
// cookie on the response) when the browser has none yet.
//
// SameSite is Lax on purpose: the provider callback is a top-level GET
// navigation from another origin, and Lax is the strictest mode that still
// sends the cookie on it. Strict would break the state check in exactly the
// case it exists for.
func (m *Manager) Session(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		data, err := m.storage.Get(r.Context(), cookie.Value)
		if err == nil {
			return &Session{manager: m, id: cookie.Value, data: data}, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	return &Session{manager: m, id: id, data: &Data{}}, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// IntendedRedirect returns the stored post-login redirect target.
func (s *Session) IntendedRedirect() string {
	return s.data.IntendedRedirect
}

// SetIntendedRedirect stores the post-login redirect target.
func (s *Session) SetIntendedRedirect(target string) {
	s.data.IntendedRedirect = target
}

// PopIntendedRedirect returns and clears the post-login redirect target.
func (s *Session) PopIntendedRedirect() string {
	target := s.data.IntendedRedirect
	s.data.IntendedRedirect = ""
	return target
}

// GenericIntended returns the host-recorded intended URL.
func (s *Session) GenericIntended() string {
	return s.data.GenericIntended
}

// SetGenericIntended stores an intended URL on behalf of the host
// application.
func (s *Session) SetGenericIntended(target string) {
	s.data.GenericIntended = target
}

// PopGenericIntended returns and clears the host-recorded intended URL.
func (s *Session) PopGenericIntended() string {
	target := s.data.GenericIntended
	s.data.GenericIntended = ""
	return target
}

// State returns the pending CSRF state.
func (s *Session) State() string {
	return s.data.PendingState
}

// SetState stores the pending CSRF state for a login attempt.
func (s *Session) SetState(state string) {
	s.data.PendingState = state
}

// PopState returns and clears the pending CSRF state.
func (s *Session) PopState() string {
	state := s.data.PendingState
	s.data.PendingState = ""
	return state
}

// UserID returns the authenticated user ID, zero when anonymous.
func (s *Session) UserID() int64 {
	return s.data.UserID
}

// Authenticated reports whether a login completed on this session.
func (s *Session) Authenticated() bool {
	return s.data.Authenticated
}

// Establish marks the session authenticated for the given user. This is the
// persistent "remember me" login; the session cookie lifetime is the login
// lifetime.
func (s *Session) Establish(userID int64) {
	s.data.UserID = userID
	s.data.Authenticated = true
}

// Clear drops the authenticated user and any in-flight login state.
func (s *Session) Clear() {
	s.data.UserID = 0
	s.data.Authenticated = false
	s.data.PendingState = ""
	s.data.IntendedRedirect = ""
}

// Save persists the session record.
func (s *Session) Save(ctx context.Context) error {
	s.data.UpdatedAt = time.Now()
	return s.manager.storage.Put(ctx, s.id, s.data)
}

// Destroy removes the session record entirely.
func (s *Session) Destroy(ctx context.Context) error {
	s.data = &Data{}
	return s.manager.storage.Delete(ctx, s.id)
}
