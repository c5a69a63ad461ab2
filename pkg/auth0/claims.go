// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package auth0

// Claims carries the identity attributes asserted by Auth0 after a
// successful authorization-code exchange. One value is produced per
// callback; selected fields are copied onto the local user record and the
// value is then discarded.
type Claims struct {
	// Subject is the Auth0 user identifier (sub claim).
	Subject string

	// Email is the user's email address.
	Email string

	// Name is the user's full display name.
	Name string

	// GivenName is the standard given_name claim, when present.
	GivenName string

	// FamilyName is the standard family_name claim, when present.
	FamilyName string

	// Nickname is the Auth0 nickname claim, when present. For
	// username/password Auth0 accounts this is often the only name signal.
	Nickname string

	// AvatarURL is the picture claim, when present.
	AvatarURL string

	// AccessToken is the access token from the exchange. Opaque; stored,
	// never inspected.
	AccessToken string

	// RefreshToken is the refresh token, when Auth0 issued one.
	RefreshToken string

	// IDToken is the raw ID token, when present. Stored as an opaque secret;
	// claim extraction from it is best-effort enrichment only.
	IDToken string

	// Raw contains the full userinfo response, including any
	// namespaced custom claims.
	Raw map[string]any
}

// claimsFromUserInfo maps a userinfo response onto Claims. Unknown or
// malformed fields are left zero rather than failing the login.
func claimsFromUserInfo(info map[string]any) *Claims {
	return &Claims{
		Subject:    stringClaim(info, "sub"),
		Email:      stringClaim(info, "email"),
		Name:       stringClaim(info, "name"),
		GivenName:  stringClaim(info, "given_name"),
		FamilyName: stringClaim(info, "family_name"),
		Nickname:   stringClaim(info, "nickname"),
		AvatarURL:  stringClaim(info, "picture"),
		Raw:        info,
	}
}

func stringClaim(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}
