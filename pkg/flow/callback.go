// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/albrightlabs/auth0bridge/pkg/auth0"
	"github.com/albrightlabs/auth0bridge/pkg/events"
	"github.com/albrightlabs/auth0bridge/pkg/identity"
	"github.com/albrightlabs/auth0bridge/pkg/logger"
)

// handleCallback receives the provider redirect, exchanges the code for
// claims, reconciles the local user, establishes the session, and redirects
// to the sanitized original target.
func (c *Controller) handleCallback(w http.ResponseWriter, r *http.Request) {
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

	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		description := query.Get("error_description")
		if description == "" {
			description = "Unknown error"
		}
		c.fail(w, r, &auth0.DeniedError{Code: errCode, Description: description})
		return
	}

	code := query.Get("code")
	if code == "" {
		c.fail(w, r, ErrMissingCode)
		return
	}

	state := query.Get("state")
	if state == "" {
		c.fail(w, r, ErrMissingState)
		return
	}

	sess, err := c.sessions.Session(w, r)
	if err != nil {
		c.fail(w, r, err)
		return
	}

	if settings.StatelessMode {
		// Known weaker mode: without the session-bound check the code
		// exchange is the only CSRF mitigation.
		logger.Warnw("stateless mode enabled, skipping session state verification",
			"session_id", sess.ID(),
		)
	} else if sess.PopState() != state {
		c.fail(w, r, ErrStateMismatch)
		return
	}

	claims, err := client.ExchangeCode(r.Context(), code, callbackURL(settings, r))
	if err != nil {
		c.fail(w, r, err)
		return
	}

	policy := identity.Policy{
		AutoCreateUsers: settings.AutoCreateUsers,
		SyncUserData:    settings.SyncUserData,
		DefaultGroupID:  settings.DefaultUserGroupID,
	}

	user, err := c.engine.Resolve(r.Context(), claims, policy, clientIP(r))
	if err != nil {
		c.fail(w, r, err)
		return
	}

	c.events.Publish(events.Event{
		Name: events.UserAuthenticated,
		Payload: map[string]any{
			"user_id": user.ID,
			"subject": claims.Subject,
		},
	})

	sess.Establish(user.ID)

	c.events.Publish(events.Event{
		Name:    events.Login,
		Payload: map[string]any{"user_id": user.ID},
	})

	// Both targets are consumed whether or not they win: a host-recorded
	// target left behind here would hijack the redirect of a later
	// unrelated flow.
	intended := sess.PopIntendedRedirect()
	generic := sess.PopGenericIntended()
	if intended == "" {
		intended = generic
	}

	if err := sess.Save(r.Context()); err != nil {
		c.fail(w, r, err)
		return
	}

	destination := requestOrigin(r) + sanitizeRedirect(intended, requestHost(r))

	logger.Infow("auth0 login complete",
		"user_id", user.ID,
		"session_id", sess.ID(),
		"destination", destination,
	)

	http.Redirect(w, r, destination, http.StatusFound)
}

// sanitizeRedirect reduces an intended redirect target to a same-origin
// path. An absolute URL is accepted only when its host matches the current
// request's host, and even then only its path, query, and fragment survive;
// anything else collapses to "/". The result always starts with "/".
func sanitizeRedirect(intended, currentHost string) string {
	if intended == "" || intended == "/" {
		return "/"
	}

	parsed, err := url.Parse(intended)
	if err != nil {
		return "/"
	}

	if parsed.Host != "" {
		if parsed.Host != currentHost {
			return "/"
		}
		path := parsed.Path
		if path == "" {
			path = "/"
		}
		if parsed.RawQuery != "" {
			path += "?" + parsed.RawQuery
		}
		if parsed.Fragment != "" {
			path += "#" + parsed.Fragment
		}
		intended = path
	}

	if !strings.HasPrefix(intended, "/") {
		intended = "/" + intended
	}
	return intended
}
