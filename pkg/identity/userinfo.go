// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/albrightlabs/auth0bridge/pkg/auth0"
	"github.com/albrightlabs/auth0bridge/pkg/logger"
)

// ApplyUserInfo merges a raw userinfo claims map onto an existing user
// through the same fill-when-missing rules as the sync path: names are only
// written when the current value is empty or the sentinel, the avatar only
// when empty. Namespaced custom claims (http:// or https:// prefixed keys)
// are left for hooks to interpret.
//
// This feeds the secondary userinfo fetch through the regular update path;
// it is enrichment only and never changes the account linkage.
func (e *Engine) ApplyUserInfo(ctx context.Context, user *User, info map[string]any) error {
	changed := false

	if name, _ := info["name"].(string); strings.TrimSpace(name) != "" {
		first, last := splitFullName(name)
		if user.FirstName == "" || user.FirstName == SentinelFirstName {
			user.FirstName = first
			changed = true
		}
		if user.LastName == "" && last != "" {
			user.LastName = last
			changed = true
		}
	}

	if given, _ := info["given_name"].(string); given != "" &&
		(user.FirstName == "" || user.FirstName == SentinelFirstName) {
		user.FirstName = given
		changed = true
	}

	if family, _ := info["family_name"].(string); family != "" && user.LastName == "" {
		user.LastName = family
		changed = true
	}

	if picture, _ := info["picture"].(string); picture != "" && user.AvatarURL == "" {
		user.AvatarURL = picture
		changed = true
	}

	if !changed {
		return nil
	}

	if err := e.store.Update(ctx, user); err != nil {
		return fmt.Errorf("update user from userinfo: %w", err)
	}

	logger.Debugw("applied userinfo claims to user", "user_id", user.ID)

	e.runHooks(ctx, user, &auth0.Claims{Subject: user.ExternalID, Raw: info})
	return nil
}

// CustomClaims returns the namespaced custom claims from a userinfo map,
// i.e. entries whose keys start with http:// or https://.
func CustomClaims(info map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range info {
		if strings.HasPrefix(k, "http://") || strings.HasPrefix(k, "https://") {
			out[k] = v
		}
	}
	return out
}
