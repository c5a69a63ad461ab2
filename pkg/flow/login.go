// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/albrightlabs/auth0bridge/pkg/logger"
)

// handleLogin begins the authorization-code flow: it records where the user
// should land after login, issues the CSRF state, and redirects the browser
// to the tenant's /authorize endpoint.
func (c *Controller) handleLogin(w http.ResponseWriter, r *http.Request) {
	settings, err := c.config.Load()
	if err != nil {
		c.fail(w, r, err)
		return
	}

	client, err := c.newClient(settings)
	if err != nil {
		c.fail(w, r, err)
		return
	}

	sess, err := c.sessions.Session(w, r)
	if err != nil {
		c.fail(w, r, err)
		return
	}

	// Redirect target precedence: a target recorded by the host application
	// wins, then an explicit ?redirect= parameter, then a target left over
	// from an earlier login attempt on this session.
	intended := "/"
	if host := sess.PopGenericIntended(); host != "" {
		intended = host
	} else if param := r.URL.Query().Get("redirect"); param != "" {
		intended = param
	} else if prior := sess.IntendedRedirect(); prior != "" {
		intended = prior
	}
	sess.SetIntendedRedirect(intended)

	state := newState()
	if settings.StatelessMode {
		logger.Warnw("stateless mode enabled, callback state will not be verified against the session",
			"session_id", sess.ID(),
		)
	} else {
		sess.SetState(state)
	}

	if err := sess.Save(r.Context()); err != nil {
		c.fail(w, r, err)
		return
	}

	authURL := client.AuthorizationURL(r.Context(), state, callbackURL(settings, r))

	logger.Infow("redirecting to auth0 for authentication",
		"session_id", sess.ID(),
		"intended", intended,
	)

	http.Redirect(w, r, authURL, http.StatusFound)
}

// newState generates an opaque CSRF state value.
func newState() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
