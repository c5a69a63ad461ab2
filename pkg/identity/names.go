// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"strings"

	"github.com/albrightlabs/auth0bridge/pkg/auth0"
)

// DeriveName produces a best-effort first/last name from claims. Sources are
// tried in a fixed precedence order until a non-empty first name is found:
//
//  1. given_name / family_name standard claims
//  2. the display name, split on the first space
//  3. nickname, split like (2) when it contains a space
//  4. the email local-part, with "." or "_" treated as a space
//  5. the literal SentinelFirstName with an empty last name
//
// The precedence order is load-bearing: downstream systems detect "no real
// name known" by comparing the first name against SentinelFirstName.
func DeriveName(claims *auth0.Claims) (firstName, lastName string) {
	if claims.GivenName != "" {
		return claims.GivenName, claims.FamilyName
	}

	if name := strings.TrimSpace(claims.Name); name != "" {
		return splitFullName(name)
	}

	if claims.Nickname != "" {
		if strings.Contains(claims.Nickname, " ") {
			return splitFullName(claims.Nickname)
		}
		return claims.Nickname, ""
	}

	if local := emailLocalPart(claims.Email); local != "" {
		switch {
		case strings.Contains(local, "."):
			return splitFullName(strings.ReplaceAll(local, ".", " "))
		case strings.Contains(local, "_"):
			return splitFullName(strings.ReplaceAll(local, "_", " "))
		default:
			return local, ""
		}
	}

	return SentinelFirstName, ""
}

// splitFullName splits a full name on the first space.
func splitFullName(full string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}

// emailLocalPart returns the part of an email address before the "@", or
// empty when there is none.
func emailLocalPart(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found {
		return ""
	}
	return local
}
