// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"net/http"

	"github.com/albrightlabs/auth0bridge/pkg/auth0"
	"github.com/albrightlabs/auth0bridge/pkg/logger"
)

// handleLogout clears the local session and sends the browser through the
// tenant's /v2/logout endpoint so the Auth0 session ends too. Without a
// configured domain there is nothing to log out of upstream and the browser
// just goes home.
func (c *Controller) handleLogout(w http.ResponseWriter, r *http.Request) {
	settings, err := c.config.Load()
	if err != nil {
		c.fail(w, r, err)
		return
	}

	sess, err := c.sessions.Session(w, r)
	if err != nil {
		c.fail(w, r, err)
		return
	}

	userID := sess.UserID()
	sess.Clear()
	if err := sess.Save(r.Context()); err != nil {
		c.fail(w, r, err)
		return
	}

	if settings.Domain == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	returnTo := settings.LogoutURL
	if returnTo == "" {
		returnTo = requestOrigin(r) + "/"
	}

	logoutURL := auth0.BuildLogoutURL(settings.Domain, settings.ClientID, returnTo)

	logger.Infow("logging out via auth0",
		"user_id", userID,
		"return_to", returnTo,
	)

	http.Redirect(w, r, logoutURL, http.StatusFound)
}
